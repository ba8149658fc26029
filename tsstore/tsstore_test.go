package tsstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prediktor/quarry/frame"
	"github.com/prediktor/quarry/qerr"
	"github.com/prediktor/quarry/term"
	"github.com/prediktor/quarry/tsplan"
)

type fakeStore struct {
	frames map[string]*frame.Frame
	errs   map[string]error
}

func (s *fakeStore) Execute(_ context.Context, req *tsplan.Request) (*frame.Frame, error) {
	name := req.VariableTerm.Value()
	if err, ok := s.errs[name]; ok {
		return nil, err
	}
	return s.frames[name], nil
}

func TestExecuteAllRenamesColumns(t *testing.T) {
	a := term.NewArena()
	val := a.NewVariable("val")
	ts := a.NewVariable("myTs")
	v := a.NewVariable("v")

	req := &tsplan.Request{
		VariableTerm:   val,
		SignalIDColumn: "val_signal_id",
		Datatype:       tsplan.DatatypeReal,
		TimestampVar:   ts,
		DataVar:        v,
	}
	store := &fakeStore{frames: map[string]*frame.Frame{
		"val": frame.New([]string{"signal_id", "ts", "real_value"}, []frame.Row{
			{"signal_id": frame.IntCell(42), "ts": nil, "real_value": frame.RealCell(1.5)},
		}),
	}}

	err := ExecuteAll(context.Background(), store, []*tsplan.Request{req})
	require.NoError(t, err)
	require.NotNil(t, req.ResultFrame)
	assert.ElementsMatch(t, []string{"val_signal_id", "myTs", "v"}, req.ResultFrame.Columns)
}

func TestExecuteAllWrapsError(t *testing.T) {
	a := term.NewArena()
	val := a.NewVariable("val")
	req := &tsplan.Request{VariableTerm: val, SignalIDColumn: "val_signal_id"}
	store := &fakeStore{errs: map[string]error{"val": errors.New("boom")}}

	err := ExecuteAll(context.Background(), store, []*tsplan.Request{req})
	require.Error(t, err)
	assert.True(t, qerr.Is(err, qerr.KindTimeSeries))
}
