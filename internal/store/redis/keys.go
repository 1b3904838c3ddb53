package redis

import "fmt"

const (
	// KeyPrefixBook is the prefix for book keys
	KeyPrefixBook = "bookshelf:book:"
	// KeyBookOrder is the sorted set of book IDs scored by insertion sequence
	KeyBookOrder = "bookshelf:books:order"
)

// BookKey returns the Redis key for a book by ID
func BookKey(id string) string {
	return KeyPrefixBook + id
}

// BookOrderKey returns the key of the sorted set holding shelf order
func BookOrderKey() string {
	return KeyBookOrder
}

// ExtractBookID extracts the book ID from a Redis key
func ExtractBookID(key string) (string, error) {
	if len(key) <= len(KeyPrefixBook) || key[:len(KeyPrefixBook)] != KeyPrefixBook {
		return "", fmt.Errorf("invalid book key: %s", key)
	}
	return key[len(KeyPrefixBook):], nil
}
