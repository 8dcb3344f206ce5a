package initialize

import (
	"testing"
	"time"

	"sagiri-relay/backend/app/relay"
	"sagiri-relay/backend/app/repo"
	"sagiri-relay/backend/app/services"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobTTLFollowsHorizonReload(t *testing.T) {
	blobs, err := repo.NewDiskBlobRepository(t.TempDir())
	require.NoError(t, err)
	retention := services.NewRetention(time.Hour)
	r, err := relay.New(relay.Options{Retention: retention, Blobs: blobs, Logger: zerolog.Nop()})
	require.NoError(t, err)
	defer r.Close()

	ttl := BlobTTL(retention)
	assert.Equal(t, 2*time.Hour, ttl())

	r.SetHorizon(5 * time.Hour)
	assert.Equal(t, 10*time.Hour, ttl())
}
