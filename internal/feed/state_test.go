package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/jobfeed/internal/domain"
)

func TestStateView(t *testing.T) {
	some := []domain.Job{{ID: 1}}

	tests := []struct {
		name  string
		state State
		want  View
	}{
		{name: "first load", state: State{Phase: PhaseLoading}, want: ViewLoading},
		{name: "refresh with data", state: State{Phase: PhaseLoading, Jobs: some}, want: ViewList},
		{name: "error without data", state: State{LastError: "boom"}, want: ViewError},
		{name: "error with data", state: State{LastError: "boom", Jobs: some}, want: ViewList},
		{name: "nothing yet", state: State{}, want: ViewEmpty},
		{name: "loading more", state: State{Phase: PhaseLoadingMore, Jobs: some}, want: ViewList},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.View())
		})
	}
}

func TestStateLoading(t *testing.T) {
	assert.False(t, State{Phase: PhaseIdle}.Loading())
	assert.True(t, State{Phase: PhaseLoading}.Loading())
	assert.True(t, State{Phase: PhaseLoadingMore}.Loading())
}
