package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearService_Set(t *testing.T) {
	tests := []struct {
		name    string
		in      int
		want    int
		wantErr error
	}{
		{name: "inside bounds", in: 1500, want: 1500},
		{name: "zero becomes one", in: 0, want: 1},
		{name: "lower bound", in: MinYear, want: MinYear},
		{name: "upper bound", in: MaxYear, want: MaxYear},
		{name: "below", in: MinYear - 1, want: DefaultYear, wantErr: ErrYearOutOfRange},
		{name: "above", in: MaxYear + 1, want: DefaultYear, wantErr: ErrYearOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewYearService()
			got, err := s.Set(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, s.Year())
		})
	}
}

func TestYearService_StepSkipsZero(t *testing.T) {
	s := NewYearService()
	_, err := s.Set(-1)
	require.NoError(t, err)

	y, err := s.Forward()
	require.NoError(t, err)
	assert.Equal(t, 1, y)

	y, err = s.Backward()
	require.NoError(t, err)
	assert.Equal(t, -1, y)
}

func TestYearService_StepAtBounds(t *testing.T) {
	s := NewYearService()
	_, err := s.Set(MaxYear)
	require.NoError(t, err)
	y, err := s.Forward()
	assert.ErrorIs(t, err, ErrYearOutOfRange)
	assert.Equal(t, MaxYear, y)

	_, err = s.Set(MinYear)
	require.NoError(t, err)
	y, err = s.Backward()
	assert.ErrorIs(t, err, ErrYearOutOfRange)
	assert.Equal(t, MinYear, y)

	lo, hi := s.Bounds()
	assert.Equal(t, -3000, lo)
	assert.Equal(t, 1911, hi)
}

func TestYearService_Subscribe(t *testing.T) {
	s := NewYearService()
	ch, cancel := s.Subscribe(4)

	_, _ = s.Set(100)
	_, _ = s.Set(100)
	_, _ = s.Forward()
	cancel()

	var got []int
	for y := range ch {
		got = append(got, y)
	}
	assert.Equal(t, []int{100, 101}, got)
}
