package objectloop

import "testing"

func TestSignal1ConnectEmit(t *testing.T) {
	var sig Signal1[int]
	var got []int
	sig.Connect(nil, func(v int) { got = append(got, v) })
	sig.Connect(nil, func(v int) { got = append(got, v*10) })

	sig.Emit(3)

	if len(got) != 2 || got[0] != 3 || got[1] != 30 {
		t.Fatalf("got %v, want [3 30]", got)
	}
}

func TestSignalDuplicateConnectionsBothFire(t *testing.T) {
	var sig Signal0
	count := 0
	slot := func() { count++ }
	sig.Connect(nil, slot)
	sig.Connect(nil, slot)

	sig.Emit()

	if count != 2 {
		t.Fatalf("count = %d, want 2 (no dedup on connect)", count)
	}
}

func TestSignalDisconnectAll(t *testing.T) {
	var sig Signal0
	fired := false
	sig.Connect(nil, func() { fired = true })
	sig.Disconnect()
	sig.Emit()

	if fired {
		t.Fatal("slot fired after Disconnect")
	}
}

func TestSignalDisconnectByObject(t *testing.T) {
	var sig Signal0
	obj := NewObject(nil)
	fired := false
	sig.Connect(obj, func() { fired = true })

	other := NewObject(nil)
	sig.DisconnectObject(other)
	sig.Emit()
	if !fired {
		t.Fatal("wrong-receiver Disconnect removed the connection")
	}

	fired = false
	sig.DisconnectObject(obj)
	sig.Emit()
	if fired {
		t.Fatal("slot fired after DisconnectObject(obj)")
	}
}

func TestSignalDisconnectFuncExactMatch(t *testing.T) {
	var sig Signal0
	countA, countB := 0, 0
	slotA := func() { countA++ }
	slotB := func() { countB++ }
	sig.Connect(nil, slotA)
	sig.Connect(nil, slotB)

	sig.DisconnectFunc(nil, slotA)
	sig.Emit()

	if countA != 0 {
		t.Fatalf("countA = %d, want 0", countA)
	}
	if countB != 1 {
		t.Fatalf("countB = %d, want 1", countB)
	}
}

// TestSignalEmitSnapshotAllowsSelfDisconnect exercises the invariant that a
// slot may disconnect itself (or another slot) mid-emit without affecting
// the in-flight emission, since Emit snapshots the connection list first.
func TestSignalEmitSnapshotAllowsSelfDisconnect(t *testing.T) {
	var sig Signal0
	var calls []string

	calls = append(calls)
	sig.Connect(nil, func() {
		calls = append(calls, "a")
		sig.Disconnect()
	})
	sig.Connect(nil, func() {
		calls = append(calls, "b")
	})

	sig.Emit()
	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("calls = %v, want [a b]; self-disconnect during emit should not skip later slots", calls)
	}

	calls = nil
	sig.Emit()
	if len(calls) != 0 {
		t.Fatalf("calls = %v, want none after Disconnect took effect", calls)
	}
}
