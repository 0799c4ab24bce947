package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worktrack/internal/models"
)

func fixture() ([]models.Ticket, map[string]string) {
	tickets := []models.Ticket{
		{ID: "t1", ProjectID: "p1", Status: models.TicketPending},
		{ID: "t2", ProjectID: "p1", TaskID: "k1", Status: models.TicketPending},
		{ID: "t3", TaskID: "k2", Status: models.TicketPending},
		{ID: "t4", ProjectID: "p2", Status: models.TicketPending},
		{ID: "t5", Status: models.TicketPending},
		{ID: "t6", ProjectID: "p1", Status: models.TicketApproved},
		{ID: "t7", TaskID: "k1", Status: models.TicketDeferred},
	}
	taskProject := map[string]string{"k1": "p1", "k2": "p1", "k3": "p2"}
	return tickets, taskProject
}

func TestPendingCount(t *testing.T) {
	tickets, taskProject := fixture()

	cases := []struct {
		scope Scope
		want  int
	}{
		{Global(), 5},
		{ForProject("p1"), 3},
		{ForProject("p2"), 1},
		{ForProject("p3"), 0},
		{ForTask("k1"), 1},
		{ForTask("k2"), 1},
		{ForTask("k3"), 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.scope.Kind)+":"+tc.scope.ID, func(t *testing.T) {
			got, err := PendingCount(tickets, taskProject, tc.scope)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPendingCountInvalidScope(t *testing.T) {
	tickets, taskProject := fixture()

	_, err := PendingCount(tickets, taskProject, Scope{Kind: "team"})
	require.ErrorIs(t, err, models.ErrInvalidField)

	_, err = PendingCount(tickets, taskProject, Scope{Kind: ScopeProject})
	require.ErrorIs(t, err, models.ErrInvalidField)
}

func TestSummarize(t *testing.T) {
	tickets, taskProject := fixture()

	s := Summarize(tickets, taskProject)
	assert.Equal(t, 5, s.Global)
	assert.Equal(t, map[string]int{"p1": 3, "p2": 1}, s.ByProject)
	assert.Equal(t, map[string]int{"k1": 1, "k2": 1}, s.ByTask)

	// the summary agrees with the per-scope counts
	for project, n := range s.ByProject {
		got, err := PendingCount(tickets, taskProject, ForProject(project))
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
}
