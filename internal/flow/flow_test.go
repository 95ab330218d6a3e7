package flow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce(t *testing.T) {
	viewing := State{Step: StepResults, ViewingHistory: true}

	tests := []struct {
		name   string
		state  State
		action Action
		want   State
	}{
		{"sync clears history flag", viewing, SyncStep(StepPrice), State{Step: StepPrice}},
		{"set keeps history flag", viewing, SetStep(StepInsights), State{Step: StepInsights, ViewingHistory: true}},
		{"view history", State{Step: StepInsights}, ViewHistoryResults(), viewing},
		{"new price", viewing, StartNewPrice(), State{Step: StepPrice}},
		{"logo with profile", viewing, LogoReset(true, true), State{Step: StepPrice}},
		{"logo without profile", State{Step: StepProfile}, LogoReset(false, true), State{Step: StepSetup}},
		{"logo signed out", State{Step: StepSetup}, LogoReset(false, false), State{Step: StepWelcome}},
		{"unknown action", viewing, Action{Kind: "NOPE"}, viewing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(tt.state, tt.action))
		})
	}
}

type identityState struct {
	identity, profile, verify bool
}

func (s identityState) HasIdentity() bool       { return s.identity }
func (s identityState) HasProfile() bool        { return s.profile }
func (s identityState) NeedsVerification() bool { return s.verify }

func TestDerive(t *testing.T) {
	assert.Equal(t, StepWelcome, Derive(identityState{}))
	assert.Equal(t, StepSetup, Derive(identityState{identity: true}))
	assert.Equal(t, StepPrice, Derive(identityState{identity: true, profile: true}))
	assert.Equal(t, StepVerify, Derive(identityState{identity: true, verify: true}))
}

func TestCountdown_Completes(t *testing.T) {
	c := Countdown{Duration: 30 * time.Millisecond, Interval: 10 * time.Millisecond}

	var ticks []Tick
	require.NoError(t, c.Run(context.Background(), func(tk Tick) { ticks = append(ticks, tk) }))

	require.Len(t, ticks, 4)
	assert.Equal(t, 30*time.Millisecond, ticks[0].Remaining)
	assert.Equal(t, 0.0, ticks[0].Progress)
	assert.Equal(t, time.Duration(0), ticks[3].Remaining)
	assert.Equal(t, 1.0, ticks[3].Progress)
}

func TestCountdown_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := Countdown{Duration: time.Hour, Interval: 5 * time.Millisecond}

	ticks := 0
	err := c.Run(ctx, func(Tick) {
		ticks++
		if ticks == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, ticks)
}

func TestNewCountdown(t *testing.T) {
	assert.Equal(t, DefaultCoolOff, NewCountdown(0).Duration)
	assert.Equal(t, 3*time.Second, NewCountdown(3*time.Second).Duration)
	assert.Equal(t, time.Second, NewCountdown(0).Interval)
}
