package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"jack/internal/plugin"
	"jack/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePlugin provides a configurable set of actions with per-action
// behavior and call counting.
type fakePlugin struct {
	name    string
	actions []string
	delay   time.Duration
	run     func(action string, params map[string]any) (*plugin.Result, error)

	mu    sync.Mutex
	calls map[string]int
}

func newFakePlugin(name string, actions ...string) *fakePlugin {
	return &fakePlugin{
		name:    name,
		actions: actions,
		calls:   make(map[string]int),
		run: func(string, map[string]any) (*plugin.Result, error) {
			return plugin.Ok(map[string]any{"ok": true}), nil
		},
	}
}

func (f *fakePlugin) Name() string      { return f.name }
func (f *fakePlugin) Actions() []string { return f.actions }

func (f *fakePlugin) Execute(_ context.Context, action string, params map[string]any) (*plugin.Result, error) {
	f.mu.Lock()
	f.calls[action]++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.run(action, params)
}

func (f *fakePlugin) callCount(action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[action]
}

func intent(id, action string, deps ...string) types.ParsedIntent {
	return types.ParsedIntent{ID: id, Action: action, Dependencies: deps}
}

func TestExecuteAllRecordsAllResults(t *testing.T) {
	reg := plugin.NewRegistry()
	reg.MustRegister(newFakePlugin("p", "a", "b"))

	intents := []types.ParsedIntent{intent("i1", "a"), intent("i2", "b")}
	order := types.ExecutionOrder{{"i1"}, {"i2"}}

	results := New(reg).ExecuteAll(context.Background(), intents, order, nil)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, id := range []string{"i1", "i2"} {
		res := results[id]
		if res == nil || !res.Success {
			t.Errorf("intent %s: got %+v, want success", id, res)
		}
	}
}

func TestDependencyFailureSkipsDependent(t *testing.T) {
	reg := plugin.NewRegistry()
	failing := newFakePlugin("failing", "boom")
	failing.run = func(string, map[string]any) (*plugin.Result, error) {
		return plugin.Fail("it broke"), nil
	}
	downstream := newFakePlugin("downstream", "next")
	reg.MustRegister(failing)
	reg.MustRegister(downstream)

	intents := []types.ParsedIntent{intent("i1", "boom"), intent("i2", "next", "i1")}
	order := types.ExecutionOrder{{"i1"}, {"i2"}}

	results := New(reg).ExecuteAll(context.Background(), intents, order, nil)

	if results["i2"].Success {
		t.Fatal("dependent intent should have failed")
	}
	if want := "Skipped: dependency 'i1' failed"; results["i2"].Error != want {
		t.Errorf("got error %q, want %q", results["i2"].Error, want)
	}
	if n := downstream.callCount("next"); n != 0 {
		t.Errorf("dependent plugin was invoked %d times, want 0", n)
	}
}

func TestGroupRunsConcurrently(t *testing.T) {
	reg := plugin.NewRegistry()
	slow := newFakePlugin("slow", "a", "b")
	slow.delay = 50 * time.Millisecond
	reg.MustRegister(slow)

	intents := []types.ParsedIntent{intent("i1", "a"), intent("i2", "b")}
	order := types.ExecutionOrder{{"i1", "i2"}}

	start := time.Now()
	New(reg).ExecuteAll(context.Background(), intents, order, nil)
	elapsed := time.Since(start)

	if elapsed >= 100*time.Millisecond {
		t.Errorf("group took %v; intents ran serially", elapsed)
	}
}

func TestGroupSequencing(t *testing.T) {
	reg := plugin.NewRegistry()

	var mu sync.Mutex
	var trace []string
	record := func(id string) {
		mu.Lock()
		trace = append(trace, id)
		mu.Unlock()
	}

	first := newFakePlugin("first", "a")
	first.run = func(string, map[string]any) (*plugin.Result, error) {
		record("i1")
		return plugin.Ok("one"), nil
	}
	second := newFakePlugin("second", "b")
	second.run = func(_ string, params map[string]any) (*plugin.Result, error) {
		record("i2")
		prior, _ := params["_priorResults"].(map[string]*types.ExecutionResult)
		if prior["i1"] == nil {
			return plugin.Fail("i1 result not visible"), nil
		}
		return plugin.Ok("two"), nil
	}
	reg.MustRegister(first)
	reg.MustRegister(second)

	intents := []types.ParsedIntent{intent("i1", "a"), intent("i2", "b", "i1")}
	order := types.ExecutionOrder{{"i1"}, {"i2"}}

	results := New(reg).ExecuteAll(context.Background(), intents, order, nil)

	if !results["i2"].Success {
		t.Fatalf("i2 failed: %s", results["i2"].Error)
	}
	if len(trace) != 2 || trace[0] != "i1" || trace[1] != "i2" {
		t.Errorf("execution trace = %v, want [i1 i2]", trace)
	}
}

func TestConditionalExecution(t *testing.T) {
	for _, tc := range []struct {
		name      string
		shouldAct bool
		wantRun   bool
	}{
		{"condition true", true, true},
		{"condition false", false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			reg := plugin.NewRegistry()
			probe := newFakePlugin("probe", "probe")
			probe.run = func(string, map[string]any) (*plugin.Result, error) {
				return plugin.Ok(map[string]any{"shouldAct": tc.shouldAct}), nil
			}
			gated := newFakePlugin("gated", "act")
			reg.MustRegister(probe)
			reg.MustRegister(gated)

			intents := []types.ParsedIntent{
				intent("i1", "probe"),
				{ID: "i2", Action: "act", Dependencies: []string{"i1"},
					Conditional: true, ConditionExpr: "i1.data.shouldAct === true"},
			}
			order := types.ExecutionOrder{{"i1"}, {"i2"}}

			results := New(reg).ExecuteAll(context.Background(), intents, order, nil)

			if tc.wantRun {
				if !results["i2"].Success {
					t.Fatalf("i2 should have run, got %+v", results["i2"])
				}
				return
			}
			if results["i2"].Success {
				t.Fatal("i2 should have been skipped")
			}
			if want := "Skipped: condition not met"; results["i2"].Error != want {
				t.Errorf("got error %q, want %q", results["i2"].Error, want)
			}
			if n := gated.callCount("act"); n != 0 {
				t.Errorf("gated plugin invoked %d times, want 0", n)
			}
		})
	}
}

func TestNoPluginFound(t *testing.T) {
	reg := plugin.NewRegistry()

	results := New(reg).ExecuteAll(context.Background(),
		[]types.ParsedIntent{intent("i1", "nonexistent")},
		types.ExecutionOrder{{"i1"}}, nil)

	res := results["i1"]
	if res.Success {
		t.Fatal("unknown action should fail")
	}
	if want := "No plugin found for action: nonexistent"; res.Error != want {
		t.Errorf("got error %q, want %q", res.Error, want)
	}
}

func TestIntentNotFound(t *testing.T) {
	reg := plugin.NewRegistry()

	results := New(reg).ExecuteAll(context.Background(), nil,
		types.ExecutionOrder{{"ghost"}}, nil)

	res := results["ghost"]
	if res.Success || res.Error != "Intent not found" {
		t.Errorf("got %+v, want Intent not found failure", res)
	}
}

func TestPluginPanicBecomesFailure(t *testing.T) {
	reg := plugin.NewRegistry()
	p := newFakePlugin("panicky", "explode")
	p.run = func(string, map[string]any) (*plugin.Result, error) {
		panic("kaboom")
	}
	reg.MustRegister(p)

	results := New(reg).ExecuteAll(context.Background(),
		[]types.ParsedIntent{intent("i1", "explode")},
		types.ExecutionOrder{{"i1"}}, nil)

	res := results["i1"]
	if res.Success {
		t.Fatal("panic should become a failed result")
	}
	if want := "plugin panic: kaboom"; res.Error != want {
		t.Errorf("got error %q, want %q", res.Error, want)
	}
}

func TestSiblingFailureDoesNotStopGroup(t *testing.T) {
	reg := plugin.NewRegistry()
	failing := newFakePlugin("failing", "bad")
	failing.run = func(string, map[string]any) (*plugin.Result, error) {
		return plugin.Fail("nope"), nil
	}
	healthy := newFakePlugin("healthy", "good")
	reg.MustRegister(failing)
	reg.MustRegister(healthy)

	intents := []types.ParsedIntent{intent("i1", "bad"), intent("i2", "good")}
	order := types.ExecutionOrder{{"i1", "i2"}}

	results := New(reg).ExecuteAll(context.Background(), intents, order, nil)

	if results["i1"].Success {
		t.Error("i1 should have failed")
	}
	if !results["i2"].Success {
		t.Error("independent sibling should still succeed")
	}
}

func TestExecuteGroupsGate(t *testing.T) {
	reg := plugin.NewRegistry()
	p := newFakePlugin("p", "a", "b")
	reg.MustRegister(p)

	intents := []types.ParsedIntent{intent("i1", "a"), intent("i2", "b")}
	order := types.ExecutionOrder{{"i1"}, {"i2"}}

	var groupsAllowed atomic.Int32
	groupsAllowed.Store(1)

	results, ran := New(reg).ExecuteGroups(context.Background(), intents, order,
		func() bool { return groupsAllowed.Add(-1) >= 0 }, nil)

	if ran {
		t.Fatal("execution should have stopped at the second group")
	}
	if results["i1"] == nil || !results["i1"].Success {
		t.Error("first group's result should be kept")
	}
	if _, ok := results["i2"]; ok {
		t.Error("second group should never have run")
	}
}

func TestProgressEvents(t *testing.T) {
	reg := plugin.NewRegistry()
	failing := newFakePlugin("failing", "bad")
	failing.run = func(string, map[string]any) (*plugin.Result, error) {
		return plugin.Fail("nope"), nil
	}
	reg.MustRegister(newFakePlugin("ok", "good"))
	reg.MustRegister(failing)

	intents := []types.ParsedIntent{
		intent("i1", "good"),
		intent("i2", "bad"),
		intent("i3", "good", "i2"),
	}
	order := types.ExecutionOrder{{"i1"}, {"i2"}, {"i3"}}

	var mu sync.Mutex
	byID := make(map[string][]ProgressStatus)
	New(reg).ExecuteAll(context.Background(), intents, order, func(p Progress) {
		mu.Lock()
		byID[p.IntentID] = append(byID[p.IntentID], p.Status)
		mu.Unlock()
	})

	want := map[string][]ProgressStatus{
		"i1": {ProgressStarted, ProgressCompleted},
		"i2": {ProgressStarted, ProgressFailed},
		"i3": {ProgressSkipped},
	}
	for id, seq := range want {
		got := byID[id]
		if fmt.Sprint(got) != fmt.Sprint(seq) {
			t.Errorf("intent %s: progress %v, want %v", id, got, seq)
		}
	}
}
