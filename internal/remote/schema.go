package remote

// Document layout shared by every device signed into an account:
//
//	users/{uid}                     Name, Email, createdAt, updatedAt, score
//	users/{uid}/friends/{friendUid} friend_uid, friend_name, friend_status
//	users/{uid}/badges/{badgeId}    badge_id, awardedAt
const (
	UsersCollection = "users"

	FieldName      = "Name"
	FieldEmail     = "Email"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldScore     = "score"

	// FieldLegacyRoamioScore is read as a fallback for documents written
	// before the score field was unified. It is never written.
	FieldLegacyRoamioScore = "roamio_score"

	FieldFriendUID    = "friend_uid"
	FieldFriendName   = "friend_name"
	FieldFriendStatus = "friend_status"

	FieldBadgeID   = "badge_id"
	FieldAwardedAt = "awardedAt"
)

func UserPath(uid string) string {
	return UsersCollection + "/" + uid
}

func FriendsCollection(owner string) string {
	return UserPath(owner) + "/friends"
}

func FriendPath(owner, friend string) string {
	return FriendsCollection(owner) + "/" + friend
}

func BadgesCollection(uid string) string {
	return UserPath(uid) + "/badges"
}

func BadgePath(uid, badgeID string) string {
	return BadgesCollection(uid) + "/" + badgeID
}

// ScoreOf reads the global score from a user document, falling back to the
// legacy roamio_score field. Missing or negative values read as 0.
func ScoreOf(fields map[string]any) int {
	n, ok := Int(fields, FieldScore)
	if !ok {
		n, ok = Int(fields, FieldLegacyRoamioScore)
	}
	if !ok || n < 0 {
		return 0
	}
	return int(n)
}
