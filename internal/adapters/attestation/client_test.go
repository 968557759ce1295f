package attestation_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/internal/adapters/attestation"
	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
)

func TestAwait_PendingThenComplete(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/attestations/0xburn", r.URL.Path)
		switch hits.Add(1) {
		case 1:
			w.WriteHeader(http.StatusNotFound)
		case 2:
			w.Write([]byte(`{"status":"pending_confirmations"}`))
		default:
			w.Write([]byte(`{"status":"complete","message":"0xaa01","attestation":"0xbb02"}`))
		}
	}))
	defer srv.Close()

	client := attestation.New(srv.URL, attestation.WithPollInterval(time.Millisecond))

	att, err := client.Await(context.Background(), "0xburn")
	require.NoError(t, err)
	assert.Equal(t, domain.HexBytes{0xaa, 0x01}, att.Message)
	assert.Equal(t, domain.HexBytes{0xbb, 0x02}, att.Proof)
	assert.GreaterOrEqual(t, hits.Load(), int32(3), "client keeps polling through pending states")
}

func TestAwait_FailedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"failed"}`))
	}))
	defer srv.Close()

	client := attestation.New(srv.URL, attestation.WithPollInterval(time.Millisecond))

	_, err := client.Await(context.Background(), "0xburn")
	assert.ErrorContains(t, err, "failure")
}

func TestAwait_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := attestation.New(srv.URL, attestation.WithPollInterval(time.Millisecond))

	_, err := client.Await(context.Background(), "0xburn")
	assert.ErrorContains(t, err, "status 500", "transport errors end the wait instead of polling forever")
}

func TestAwait_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"pending_confirmations"}`))
	}))
	defer srv.Close()

	client := attestation.New(srv.URL, attestation.WithPollInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Await(ctx, "0xburn")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
