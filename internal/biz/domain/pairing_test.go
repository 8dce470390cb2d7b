package domain

import "testing"

func readySnapshot(secondsLeft int) PairingSnapshot {
	return PairingSnapshot{State: PairingReady, SecondsLeft: secondsLeft, Image: "data:image/png;base64,x"}
}

func TestNextPairing_ImageReady(t *testing.T) {
	next, err := NextPairing(NewPairingSnapshot(), PairingEvent{
		Type: PairingEventImageReady, Image: "data:image/png;base64,x", TTLTicks: 45,
	})
	if err != nil {
		t.Fatalf("NextPairing() error = %v", err)
	}
	if next.State != PairingReady || next.SecondsLeft != 45 {
		t.Fatalf("got state=%s seconds=%d", next.State, next.SecondsLeft)
	}
}

func TestNextPairing_ImageReadyRejectedOutsideLoading(t *testing.T) {
	for _, state := range []PairingState{PairingReady, PairingExpired, PairingConnected, PairingFailed} {
		cur := PairingSnapshot{State: state}
		if _, err := NextPairing(cur, PairingEvent{Type: PairingEventImageReady, Image: "x", TTLTicks: 45}); err == nil {
			t.Errorf("image_ready from %s: expected error", state)
		}
	}
}

func TestNextPairing_CountdownExpiresExactlyOnce(t *testing.T) {
	snap, err := NextPairing(NewPairingSnapshot(), PairingEvent{Type: PairingEventImageReady, Image: "x", TTLTicks: 45})
	if err != nil {
		t.Fatalf("image_ready error = %v", err)
	}

	expiries := 0
	for i := 0; i < 45; i++ {
		snap, err = NextPairing(snap, PairingEvent{Type: PairingEventTick})
		if err != nil {
			t.Fatalf("tick %d error = %v", i, err)
		}
		if snap.SecondsLeft < 0 {
			t.Fatalf("tick %d went negative: %d", i, snap.SecondsLeft)
		}
		if snap.State == PairingExpired {
			expiries++
		}
	}
	if expiries != 1 {
		t.Fatalf("expiry transitions = %d, want 1", expiries)
	}
	if snap.SecondsLeft != 0 {
		t.Fatalf("seconds left = %d, want 0", snap.SecondsLeft)
	}

	// One more tick must be rejected, not decrement below zero.
	if _, err := NextPairing(snap, PairingEvent{Type: PairingEventTick}); err == nil {
		t.Fatal("tick after expiry: expected error")
	}
}

func TestNextPairing_RemoteOpenWinsOverCountdown(t *testing.T) {
	snap, err := NextPairing(readySnapshot(10), PairingEvent{Type: PairingEventRemoteOpen})
	if err != nil {
		t.Fatalf("remote_open error = %v", err)
	}
	if snap.State != PairingConnected {
		t.Fatalf("state = %s, want connected", snap.State)
	}
	// The losing timer's tick is rejected after the terminal transition.
	if _, err := NextPairing(snap, PairingEvent{Type: PairingEventTick}); err == nil {
		t.Fatal("tick after connected: expected error")
	}
}

func TestNextPairing_RemoteOpenFromLoading(t *testing.T) {
	// Short-circuit path: instance already open, no image was fetched.
	snap, err := NextPairing(NewPairingSnapshot(), PairingEvent{Type: PairingEventRemoteOpen})
	if err != nil {
		t.Fatalf("remote_open error = %v", err)
	}
	if snap.State != PairingConnected {
		t.Fatalf("state = %s", snap.State)
	}
}

func TestNextPairing_TransportError(t *testing.T) {
	for _, state := range []PairingState{PairingLoading, PairingReady, PairingExpired} {
		snap, err := NextPairing(PairingSnapshot{State: state, SecondsLeft: 3}, PairingEvent{
			Type: PairingEventTransportError, ErrorText: "connection refused",
		})
		if err != nil {
			t.Fatalf("transport_error from %s: %v", state, err)
		}
		if snap.State != PairingFailed || snap.LastError != "connection refused" {
			t.Fatalf("from %s got state=%s err=%q", state, snap.State, snap.LastError)
		}
	}
	if _, err := NextPairing(PairingSnapshot{State: PairingConnected}, PairingEvent{Type: PairingEventTransportError}); err == nil {
		t.Fatal("transport_error from connected: expected error")
	}
}

func TestNextPairing_RetryRecovers(t *testing.T) {
	for _, state := range []PairingState{PairingFailed, PairingExpired} {
		snap, err := NextPairing(PairingSnapshot{State: state, LastError: "x"}, PairingEvent{Type: PairingEventRetry})
		if err != nil {
			t.Fatalf("retry from %s: %v", state, err)
		}
		if snap.State != PairingLoading || snap.Image != "" || snap.LastError != "" {
			t.Fatalf("retry from %s did not reset: %+v", state, snap)
		}
	}
	if _, err := NextPairing(PairingSnapshot{State: PairingConnected}, PairingEvent{Type: PairingEventRetry}); err == nil {
		t.Fatal("retry from connected: expected error")
	}
}
