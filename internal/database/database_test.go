package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMongoDatabaseName(t *testing.T) {
	tests := map[string]string{
		"mongodb://localhost:27017":                              DefaultMongoDatabase,
		"mongodb://localhost:27017/":                             DefaultMongoDatabase,
		"mongodb://localhost:27017/chat":                         "chat",
		"mongodb+srv://u:p@cluster.example.net/gigs?retryWrites": "gigs",
	}
	for uri, want := range tests {
		t.Run(uri, func(t *testing.T) {
			assert.Equal(t, want, MongoDatabaseName(uri))
		})
	}
}
