package databases

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// SetField names an array field that is used as a membership set
type SetField string

// Membership set fields
const (
	LikeUserIDs      SetField = "likeUserIds"
	FavoriteUserIDs  SetField = "favoriteUserIds"
	CategoryIDs      SetField = "categoryIds"
	FollowerUserIDs  SetField = "followerUserIds"
	FollowingUserIDs SetField = "followingUserIds"
	NotifyUserIDs    SetField = "notifyUserIds"
)

// addToSet atomically adds value to the set field of one document and reports
// whether the set changed
func addToSet(ctx context.Context, coll CollectionHelper, id string, field SetField, value string) (bool, error) {
	update := bson.M{
		"$addToSet": bson.M{string(field): value},
		"$set":      bson.M{"updatedAt": time.Now()},
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id, string(field): bson.M{"$ne": value}}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// pullFromSet atomically removes value from the set field of one document and
// reports whether the set changed
func pullFromSet(ctx context.Context, coll CollectionHelper, id string, field SetField, value string) (bool, error) {
	update := bson.M{
		"$pull": bson.M{string(field): value},
		"$set":  bson.M{"updatedAt": time.Now()},
	}
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id, string(field): value}, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

// pullFromAll removes value from the set field of every document holding it
func pullFromAll(ctx context.Context, coll CollectionHelper, field SetField, value string) (int64, error) {
	res, err := coll.UpdateMany(ctx, bson.M{string(field): value}, bson.M{"$pull": bson.M{string(field): value}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
