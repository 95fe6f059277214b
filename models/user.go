package models

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User holds the structure for the user collection in mongo
type User struct {
	ID               string    `json:"_id" bson:"_id"`
	DisplayName      string    `json:"displayName" bson:"displayName"`
	StudentID        string    `json:"studentId" bson:"studentId"`
	Avatar           string    `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role             string    `json:"role" bson:"role"`
	FollowerUserIDs  []string  `json:"followerUserIds" bson:"followerUserIds"`
	FollowingUserIDs []string  `json:"followingUserIds" bson:"followingUserIds"`
	NotifyUserIDs    []string  `json:"notifyUserIds" bson:"notifyUserIds"`
	CreatedAt        time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt" bson:"updatedAt"`
}

// IsAdmin reports whether the user has the admin role
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UpdateProfileRequest holds the profile fields a user may change
type UpdateProfileRequest struct {
	DisplayName *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=64"`
	StudentID   *string `json:"studentId,omitempty" validate:"omitempty,max=32"`
	Avatar      *string `json:"avatar,omitempty"`
}
