package ports

import (
	"context"
	"testing"
	"time"

	"github.com/ivan-angjelkoski/inj-sdk-bridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	id := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(id, domain.ModeStandard, "10", "0xabc", false)
		session.Step = domain.StepAttested
		session.BurnTxHash = "0xburn"
		session.Attestation = &domain.Attestation{
			Message: domain.HexBytes{0xaa, 0x01},
			Proof:   domain.HexBytes{0xbb, 0x02},
		}

		err := store.Save(ctx, id, session)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session.ID, loaded.ID)
		assert.Equal(t, session.Step, loaded.Step)
		assert.Equal(t, session.Mode, loaded.Mode)
		assert.Equal(t, session.Amount, loaded.Amount)
		assert.Equal(t, session.BurnTxHash, loaded.BurnTxHash)
		require.NotNil(t, loaded.Attestation)
		assert.Equal(t, session.Attestation.Message, loaded.Attestation.Message)
		assert.Equal(t, session.Attestation.Proof, loaded.Attestation.Proof)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := domain.NewSession(id, domain.ModeStandard, "10", "0xabc", false)
		require.NoError(t, store.Save(ctx, id, session))

		session.Step = domain.StepApproved
		require.NoError(t, store.Save(ctx, id, session))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.StepApproved, loaded.Step)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, domain.NewSession(id, domain.ModeStandard, "10", "0xabc", false)))

		err := store.Remove(ctx, id)
		require.NoError(t, err, "Remove should not return error")

		_, err = store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Remove should return ErrSessionNotFound")

		assert.NoError(t, store.Remove(ctx, id), "removing an absent session is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1 := id + "-1"
		id2 := id + "-2"
		_ = store.Save(ctx, id1, domain.NewSession(id1, domain.ModeStandard, "1", "0xabc", false))
		_ = store.Save(ctx, id2, domain.NewSession(id2, domain.ModeSmartAccount, "2", "0xdef", true))

		defer func() {
			_ = store.Remove(ctx, id1)
			_ = store.Remove(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
