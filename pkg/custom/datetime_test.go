package custom

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type datetimeHolder struct {
	At Datetime `json:"at" bson:"at"`
}

func TestDatetime_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   Datetime
		want string
	}{
		{
			name: "set",
			in:   NewDatetime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
			want: `{"at":"2024-01-02T03:04:05Z"}`,
		},
		{
			name: "zero",
			in:   Datetime{},
			want: `{"at":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(datetimeHolder{At: tt.in})
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(got))

			back := new(datetimeHolder)
			require.NoError(t, json.Unmarshal(got, back))
			require.True(t, tt.in.Time().Equal(back.At.Time()))
		})
	}
}

func TestDatetime_UnmarshalJSONInvalid(t *testing.T) {
	d := new(Datetime)
	require.Error(t, d.UnmarshalJSON([]byte(`"yesterday"`)))
}

func TestDatetime_BSON(t *testing.T) {
	at := NewDatetime(time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.UTC))

	raw, err := bson.Marshal(datetimeHolder{At: at})
	require.NoError(t, err)

	// Stored as a native datetime so range queries work.
	require.Equal(t, bson.TypeDateTime, bson.Raw(raw).Lookup("at").Type)

	back := new(datetimeHolder)
	require.NoError(t, bson.Unmarshal(raw, back))
	require.True(t, at.Time().Equal(back.At.Time()))
}

func TestDatetime_BSONNull(t *testing.T) {
	raw, err := bson.Marshal(datetimeHolder{})
	require.NoError(t, err)
	require.Equal(t, bson.TypeNull, bson.Raw(raw).Lookup("at").Type)

	back := &datetimeHolder{At: Now()}
	require.NoError(t, bson.Unmarshal(raw, back))
	require.True(t, back.At.IsZero())
}
