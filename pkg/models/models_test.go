package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name    string
		ratings []float64
		want    float64
	}{
		{"no reviews", nil, 0},
		{"single review", []float64{3}, 3},
		{"rounds to one decimal", []float64{5, 4, 4}, 4.3},
		{"rounds half up", []float64{5, 4}, 4.5},
		{"two thirds", []float64{1, 1, 2}, 1.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reviews := make([]Review, len(tt.ratings))
			for i, r := range tt.ratings {
				reviews[i] = Review{Rating: r}
			}
			assert.Equal(t, tt.want, AverageRating(reviews))
		})
	}
}

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	t.Run("naive timestamp read as UTC", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T10:11:12.123456"`), &ts))
		assert.Equal(t, time.Date(2024, 3, 5, 10, 11, 12, 123456000, time.UTC), ts.Time)
	})

	t.Run("zoned timestamp", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-05T10:11:12+02:00"`), &ts))
		assert.Equal(t, 8, ts.UTC().Hour())
	})

	t.Run("null leaves zero value", func(t *testing.T) {
		var p Post
		require.NoError(t, json.Unmarshal([]byte(`{"id":1,"published_at":null}`), &p))
		assert.True(t, p.PublishedAt.IsZero())
		assert.Equal(t, "", p.PublishedAt.Display())
	})

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})

	t.Run("display", func(t *testing.T) {
		ts := Timestamp{time.Date(2024, 7, 4, 0, 0, 0, 0, time.UTC)}
		assert.Equal(t, "Jul 4, 2024", ts.Display())
	})
}

func TestPost_Preview(t *testing.T) {
	short := Post{Content: "Hello"}
	assert.Equal(t, "Hello", short.Preview())

	long := Post{Content: strings.Repeat("a", 120)}
	assert.Equal(t, strings.Repeat("a", 100)+"...", long.Preview())
}

func TestReview_Stars(t *testing.T) {
	assert.Equal(t, 4, Review{Rating: 4.4}.Stars())
	assert.Equal(t, 5, Review{Rating: 7}.Stars())
	assert.Equal(t, 0, Review{Rating: -1}.Stars())
}

func TestLocationUpdate_OnlySetFieldsAreSent(t *testing.T) {
	enabled := true
	body, err := json.Marshal(LocationUpdate{AutoReplyEnabled: &enabled})
	require.NoError(t, err)
	assert.JSONEq(t, `{"auto_reply_enabled":true}`, string(body))

	disabled := false
	body, err = json.Marshal(LocationUpdate{AutoPostEnabled: &disabled})
	require.NoError(t, err)
	assert.JSONEq(t, `{"auto_post_enabled":false}`, string(body))
}

func TestPostGenerate_OmitsEmptyTopic(t *testing.T) {
	body, err := json.Marshal(PostGenerate{LocationID: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"location_id":3}`, string(body))
}

func TestValidate(t *testing.T) {
	t.Run("valid post", func(t *testing.T) {
		assert.NoError(t, Validate(PostCreate{LocationID: 1, Content: "Hello"}))
	})

	t.Run("missing content", func(t *testing.T) {
		err := Validate(PostCreate{LocationID: 1})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "content", verr.Field)
		assert.Equal(t, "is required", verr.Message)
	})

	t.Run("missing location", func(t *testing.T) {
		err := Validate(PostGenerate{Topic: "Summer Sale"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "location_id", verr.Field)
	})

	t.Run("unknown post type", func(t *testing.T) {
		err := Validate(PostCreate{LocationID: 1, Content: "x", PostType: "BANNER"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "post_type", verr.Field)
	})

	t.Run("bad email", func(t *testing.T) {
		err := Validate(RegisterRequest{Email: "nope", Password: "secret"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "email", verr.Field)
	})
}
