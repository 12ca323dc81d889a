package cache

import "fmt"

// CollectionKey is the key of the cached collection read view.
func CollectionKey(collectionID uint) string {
	return fmt.Sprintf("collection:%d", collectionID)
}

// CollectionBidsKey is the key of the cached bid list of a collection.
func CollectionBidsKey(collectionID uint) string {
	return fmt.Sprintf("bids:%d", collectionID)
}

// UserBidsKey is the key of the cached bid list of a bidder.
func UserBidsKey(userID uint) string {
	return fmt.Sprintf("users:%d:bids", userID)
}

// UserKey is the key of the cached user profile.
func UserKey(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
