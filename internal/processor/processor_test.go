package processor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baffalop/watsup/internal/model"
	"github.com/baffalop/watsup/internal/processor"
	"github.com/baffalop/watsup/internal/timecalc"
)

// recorder builds Callbacks that answer from fixed values and count calls.
type recorder struct {
	choice     processor.Choice
	tagAnswers map[string]processor.TagChoice
	desc       string

	prompts   int
	tagAsked  []string
	described []string
}

func (r *recorder) callbacks() processor.Callbacks {
	return processor.Callbacks{
		Prompt: func(model.Entry) (processor.Choice, error) {
			r.prompts++
			return r.choice, nil
		},
		TagPrompt: func(_ model.Entry, tag model.Tag) (processor.TagChoice, error) {
			r.tagAsked = append(r.tagAsked, tag.Name)
			return r.tagAnswers[tag.Name], nil
		},
		Describe: func(ticketID, _ string) (string, error) {
			r.described = append(r.described, ticketID)
			return r.desc, nil
		},
	}
}

func mapping(m model.Mapping) *model.Mapping { return &m }

func minutes(n int) timecalc.Duration { return timecalc.Duration(n) * timecalc.Minute }

func TestCachedTicket(t *testing.T) {
	r := &recorder{desc: "design review"}
	entry := model.Entry{Project: "architecture", Total: minutes(88)}

	decisions, update, err := processor.ProcessEntry(entry, mapping(model.TicketMapping("PROJ-123")), r.callbacks())
	require.NoError(t, err)

	require.Len(t, decisions, 1)
	d := decisions[0]
	assert.True(t, d.IsPost())
	assert.Equal(t, "PROJ-123", d.Ticket)
	assert.Equal(t, int64(5400), d.Duration.Seconds())
	assert.Equal(t, "design review", d.Description)
	assert.Equal(t, "architecture", d.Source)
	assert.Nil(t, update)
	assert.Zero(t, r.prompts)
	assert.Equal(t, []string{"PROJ-123"}, r.described)
}

func TestCachedSkip(t *testing.T) {
	r := &recorder{}
	entry := model.Entry{Project: "breaks", Total: minutes(80)}

	decisions, update, err := processor.ProcessEntry(entry, mapping(model.SkipMapping()), r.callbacks())
	require.NoError(t, err)

	require.Len(t, decisions, 1)
	assert.False(t, decisions[0].IsPost())
	assert.Equal(t, "breaks", decisions[0].Project)
	assert.Equal(t, minutes(80), decisions[0].Duration)
	assert.Nil(t, update)
	assert.Zero(t, r.prompts)
	assert.Empty(t, r.described)
}

func TestCachedAutoExtract(t *testing.T) {
	r := &recorder{}
	entry := model.Entry{Project: "cr", Total: minutes(60), Tags: []model.Tag{
		{Name: "FK-123", Duration: minutes(30)},
		{Name: "review", Duration: minutes(15)},
		{Name: "FK-456", Duration: minutes(15)},
	}}

	decisions, update, err := processor.ProcessEntry(entry, mapping(model.AutoExtractMapping()), r.callbacks())
	require.NoError(t, err)

	require.Len(t, decisions, 2)
	assert.Equal(t, "FK-123", decisions[0].Ticket)
	assert.Equal(t, minutes(30), decisions[0].Duration)
	assert.Equal(t, "FK-456", decisions[1].Ticket)
	assert.Equal(t, minutes(15), decisions[1].Duration)
	for _, d := range decisions {
		assert.Empty(t, d.Description)
		assert.True(t, d.IsPost())
	}
	assert.Nil(t, update)
	assert.Zero(t, r.prompts)
	assert.Empty(t, r.described, "auto-extract never asks for descriptions")
}

func TestCachedAutoExtractNoMatches(t *testing.T) {
	entry := model.Entry{Project: "cr", Total: minutes(10), Tags: []model.Tag{{Name: "review", Duration: minutes(10)}}}
	decisions, update, err := processor.ProcessEntry(entry, mapping(model.AutoExtractMapping()), (&recorder{}).callbacks())
	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Nil(t, update)
}

func TestPromptAccept(t *testing.T) {
	r := &recorder{choice: processor.Choice{Action: processor.Accept, Ticket: "PROJ-9"}}
	entry := model.Entry{Project: "architecture", Total: minutes(32)}

	decisions, update, err := processor.ProcessEntry(entry, nil, r.callbacks())
	require.NoError(t, err)

	require.Len(t, decisions, 1)
	assert.Equal(t, "PROJ-9", decisions[0].Ticket)
	assert.Equal(t, minutes(30), decisions[0].Duration)
	require.NotNil(t, update)
	assert.Equal(t, model.TicketMapping("PROJ-9"), *update)
	assert.Equal(t, 1, r.prompts)
	assert.Equal(t, []string{"PROJ-9"}, r.described)
}

func TestPromptAcceptInvalidTicket(t *testing.T) {
	r := &recorder{choice: processor.Choice{Action: processor.Accept, Ticket: "nope"}}
	_, _, err := processor.ProcessEntry(model.Entry{Project: "p"}, nil, r.callbacks())
	assert.Error(t, err)
}

func TestPromptSkipOnce(t *testing.T) {
	r := &recorder{choice: processor.Choice{Action: processor.SkipOnce}}
	decisions, update, err := processor.ProcessEntry(model.Entry{Project: "misc", Total: minutes(5)}, nil, r.callbacks())
	require.NoError(t, err)
	assert.Empty(t, decisions)
	assert.Nil(t, update)
}

func TestPromptSkipAlways(t *testing.T) {
	r := &recorder{choice: processor.Choice{Action: processor.SkipAlways}}
	decisions, update, err := processor.ProcessEntry(model.Entry{Project: "breaks", Total: minutes(80)}, nil, r.callbacks())
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.False(t, decisions[0].IsPost())
	require.NotNil(t, update)
	assert.Equal(t, model.MappingSkip, update.Kind)
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name        string
		tags        []model.Tag
		answers     map[string]processor.TagChoice
		wantTickets []string
		wantAuto    bool
	}{
		{
			name: "all ticket-shaped, all accepted",
			tags: []model.Tag{{Name: "FK-1", Duration: minutes(28)}, {Name: "FK-2", Duration: minutes(33)}},
			answers: map[string]processor.TagChoice{
				"FK-1": {Accept: true, Ticket: "FK-1"},
				"FK-2": {Accept: true, Ticket: "FK-2"},
			},
			wantTickets: []string{"FK-1", "FK-2"},
			wantAuto:    true,
		},
		{
			name: "all ticket-shaped, one skipped",
			tags: []model.Tag{{Name: "FK-1", Duration: minutes(28)}, {Name: "FK-2", Duration: minutes(33)}},
			answers: map[string]processor.TagChoice{
				"FK-1": {Accept: true, Ticket: "FK-1"},
			},
			wantTickets: []string{"FK-1"},
			wantAuto:    true,
		},
		{
			name: "non-ticket tag mapped by hand",
			tags: []model.Tag{{Name: "FK-1", Duration: minutes(28)}, {Name: "review", Duration: minutes(15)}},
			answers: map[string]processor.TagChoice{
				"FK-1":   {Accept: true, Ticket: "FK-1"},
				"review": {Accept: true, Ticket: "OPS-7"},
			},
			wantTickets: []string{"FK-1", "OPS-7"},
			wantAuto:    false,
		},
		{
			name:        "non-ticket tag skipped",
			tags:        []model.Tag{{Name: "FK-1", Duration: minutes(28)}, {Name: "review", Duration: minutes(15)}},
			answers:     map[string]processor.TagChoice{"FK-1": {Accept: true, Ticket: "FK-1"}},
			wantTickets: []string{"FK-1"},
			wantAuto:    false,
		},
		{
			name: "lowercase ticket-like tag",
			tags: []model.Tag{{Name: "FK-1", Duration: minutes(28)}, {Name: "fk-2", Duration: minutes(33)}},
			answers: map[string]processor.TagChoice{
				"FK-1": {Accept: true, Ticket: "FK-1"},
				"fk-2": {Accept: true, Ticket: "FK-2"},
			},
			wantTickets: []string{"FK-1", "FK-2"},
			wantAuto:    false,
		},
		{
			name:     "no tags",
			wantAuto: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{choice: processor.Choice{Action: processor.Split}, tagAnswers: tt.answers}
			entry := model.Entry{Project: "cr", Total: minutes(61), Tags: tt.tags}

			decisions, update, err := processor.ProcessEntry(entry, nil, r.callbacks())
			require.NoError(t, err)

			var got []string
			for _, d := range decisions {
				require.True(t, d.IsPost())
				got = append(got, d.Ticket)
			}
			assert.Equal(t, tt.wantTickets, got)
			assert.Equal(t, tt.wantTickets, r.described, "each accepted tag asks for a description")
			assert.Len(t, r.tagAsked, len(tt.tags))

			if tt.wantAuto {
				require.NotNil(t, update)
				assert.Equal(t, model.MappingAutoExtract, update.Kind)
			} else {
				assert.Nil(t, update)
			}
		})
	}
}

func TestSplitRoundsPerTag(t *testing.T) {
	r := &recorder{
		choice:     processor.Choice{Action: processor.Split},
		tagAnswers: map[string]processor.TagChoice{"FK-1": {Accept: true, Ticket: "FK-1"}},
	}
	entry := model.Entry{Project: "cr", Total: minutes(60), Tags: []model.Tag{{Name: "FK-1", Duration: minutes(33)}}}

	decisions, _, err := processor.ProcessEntry(entry, nil, r.callbacks())
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, minutes(35), decisions[0].Duration)
	assert.Equal(t, "cr [FK-1]", decisions[0].Source)
}

func TestCallbackErrorsPropagate(t *testing.T) {
	boom := errors.New("stdin closed")
	cb := processor.Callbacks{
		Prompt:    func(model.Entry) (processor.Choice, error) { return processor.Choice{}, boom },
		TagPrompt: func(model.Entry, model.Tag) (processor.TagChoice, error) { return processor.TagChoice{}, boom },
		Describe:  func(string, string) (string, error) { return "", boom },
	}

	_, _, err := processor.ProcessEntry(model.Entry{Project: "p"}, nil, cb)
	assert.ErrorIs(t, err, boom)

	_, _, err = processor.ProcessEntry(model.Entry{Project: "p"}, mapping(model.TicketMapping("P-1")), cb)
	assert.ErrorIs(t, err, boom)
}
