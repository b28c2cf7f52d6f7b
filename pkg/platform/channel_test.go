package platform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Jacobbrewer1/rabbit/pkg/entities"
	"github.com/Jacobbrewer1/rabbit/pkg/platform"
	"github.com/Jacobbrewer1/rabbit/pkg/platform/platformtest"
	"github.com/stretchr/testify/require"
)

func TestCheckGuildChannel(t *testing.T) {
	client := platformtest.NewClient()
	client.AddChannel("g1", "mine")
	client.AddChannel("g2", "theirs")

	tests := []struct {
		name    string
		channel string
		wantErr error
	}{
		{name: "empty clears", channel: ""},
		{name: "same guild", channel: "mine"},
		{name: "other guild", channel: "theirs", wantErr: entities.ErrValidation},
		{name: "unknown", channel: "missing", wantErr: entities.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := platform.CheckGuildChannel(context.Background(), client, "g1", "channel_id", tt.channel)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)

			var verr *entities.ValidationError
			require.True(t, errors.As(err, &verr))
			require.Equal(t, "channel_id", verr.Field)
		})
	}
}

func TestCheckGuildChannel_LookupFailure(t *testing.T) {
	client := platformtest.NewClient()
	client.Errs["Channel"] = errors.New("gateway down")

	err := platform.CheckGuildChannel(context.Background(), client, "g1", "channel_id", "c")
	require.ErrorIs(t, err, entities.ErrExternalService)
}
