package transport

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestValidTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  bool
	}{
		{"/model/boat/cmd_vel", true},
		{"/a", true},
		{"", false},
		{"/", false},
		{"model/boat", false},
		{"/model//boat", false},
		{"/model/boat/", false},
		{"/model/bo at", false},
	}
	for _, tt := range tests {
		if got := ValidTopic(tt.topic); got != tt.want {
			t.Errorf("ValidTopic(%q) = %v, want %v", tt.topic, got, tt.want)
		}
	}
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	n := NewNode(8, zap.NewNop())
	defer n.Close()

	var mu sync.Mutex
	var got []MessageInfo
	for i := 0; i < 2; i++ {
		_, err := Subscribe(n, "/model/boat/cmd_vel", func(tw Twist, info MessageInfo) {
			if tw.Linear.X != 1 {
				t.Errorf("expected linear.x 1, got %v", tw.Linear.X)
			}
			mu.Lock()
			got = append(got, info)
			mu.Unlock()
		})
		if err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	delivered, err := n.Publish("/model/boat/cmd_vel", Twist{Linear: Vector3{X: 1}})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if delivered != 2 {
		t.Errorf("expected 2 deliveries, got %d", delivered)
	}
	n.Sync()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 {
		t.Fatalf("expected 2 handler calls, got %d", len(got))
	}
	for _, info := range got {
		if info.Topic != "/model/boat/cmd_vel" || info.Seq != 1 {
			t.Errorf("unexpected info %+v", info)
		}
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	n := NewNode(8, zap.NewNop())
	defer n.Close()
	delivered, err := n.Publish("/nobody/listens", Twist{})
	if err != nil || delivered != 0 {
		t.Errorf("expected (0, nil), got (%d, %v)", delivered, err)
	}
}

func TestTypedSubscribeDropsOtherTypes(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewNode(8, zap.New(core))
	defer n.Close()

	calls := 0
	if _, err := Subscribe(n, "/t", func(Twist, MessageInfo) { calls++ }); err != nil {
		t.Fatal(err)
	}
	n.Publish("/t", "not a twist")
	n.Sync()

	if calls != 0 {
		t.Errorf("expected handler not to run, ran %d times", calls)
	}
	if logs.FilterMessage("dropping message of unexpected type").Len() != 1 {
		t.Error("expected a type mismatch warning")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	n := NewNode(8, zap.NewNop())
	defer n.Close()

	calls := 0
	sub, _ := Subscribe(n, "/t", func(Twist, MessageInfo) { calls++ })
	n.Publish("/t", Twist{})
	n.Sync()
	sub.Unsubscribe()
	if delivered, _ := n.Publish("/t", Twist{}); delivered != 0 {
		t.Errorf("expected 0 deliveries after unsubscribe, got %d", delivered)
	}
	n.Sync()
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestFullQueueDrops(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	n := NewNode(1, zap.New(core))
	defer n.Close()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	Subscribe(n, "/slow", func(Twist, MessageInfo) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	n.Publish("/slow", Twist{}) // picked up by the handler, which blocks
	<-started
	n.Publish("/slow", Twist{}) // fills the queue
	if delivered, _ := n.Publish("/slow", Twist{}); delivered != 0 {
		t.Errorf("expected drop on full queue, got %d deliveries", delivered)
	}
	close(release)
	n.Sync()
	if logs.FilterMessage("subscriber queue full, message dropped").Len() != 1 {
		t.Error("expected one drop warning")
	}
}

func TestPanickingHandlerIsContained(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	n := NewNode(4, zap.New(core))
	defer n.Close()

	Subscribe(n, "/p", func(Twist, MessageInfo) { panic("boom") })
	n.Publish("/p", Twist{})
	n.Publish("/p", Twist{})
	n.Sync()
	if logs.FilterMessage("subscriber panicked").Len() != 2 {
		t.Errorf("expected 2 panic logs, got %d", logs.Len())
	}
}

func TestClosedNodeRejects(t *testing.T) {
	n := NewNode(4, zap.NewNop())
	n.Close()
	if _, err := n.Publish("/t", Twist{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := Subscribe(n, "/t", func(Twist, MessageInfo) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if _, err := NewNode(4, zap.NewNop()).Publish("bad", Twist{}); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("expected ErrInvalidTopic, got %v", err)
	}
}
