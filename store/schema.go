package store

import "fmt"

// DynamoDB schema constants. Every key of one backend lives in a single
// partition so that prefix listing is a Query on the sort key.
const (
	// Table attributes
	AttrPK         = "PK"
	AttrSK         = "SK"
	AttrEntityType = "entity_type"
	AttrValue      = "value"
	AttrUpdatedAt  = "updated_at"

	EntityTypeEntry = "Entry"

	// DefaultPartition is used when NewDynamoDBBackend gets an empty partition
	DefaultPartition = "default"

	// MaxDynamoDBItemSize is the DynamoDB item size limit in bytes
	MaxDynamoDBItemSize = 400 * 1024
)

// Entry keys: PK=KV#{partition}, SK=KEY#{key}
func entryPK(partition string) string {
	return fmt.Sprintf("KV#%s", partition)
}

func entrySK(key string) string {
	return fmt.Sprintf("KEY#%s", key)
}

func entrySKPrefix(prefix string) string {
	return entrySK(prefix)
}

// entryKey strips the sort key prefix
func entryKey(sk string) string {
	return sk[len(entrySK("")):]
}
