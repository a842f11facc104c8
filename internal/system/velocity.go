package system

import (
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/marisim/simhost/internal/component"
	"github.com/marisim/simhost/internal/core/ecs"
	coresys "github.com/marisim/simhost/internal/core/system"
	"github.com/marisim/simhost/internal/transport"
	"github.com/marisim/simhost/internal/world"
	"go.uber.org/zap"
)

// ModelCmdVelTopic is the default command topic of a model.
func ModelCmdVelTopic(model string) string {
	return "/model/" + model + "/cmd_vel"
}

// LinkCmdVelTopic is the command topic of one link of a model.
func LinkCmdVelTopic(model, link string) string {
	return "/model/" + model + "/link/" + link + "/cmd_vel"
}

// VelocityControlSystem routes twist messages from the bus into velocity
// command components on a model and, optionally, some of its links.
//
// Messages arrive on bus goroutines and are buffered under mu. PreUpdate
// stages the latest buffered values and writes them, so a command is
// visible to the physics step of the first unpaused tick after it arrived.
type VelocityControlSystem struct {
	node      *transport.Node
	topic     string
	linkNames []string

	model  world.Model
	active bool
	subs   []*transport.Subscription

	mu        sync.Mutex
	targetVel transport.Twist
	linkVels  map[string]transport.Twist

	// Tick goroutine only.
	linearVelocity    mgl64.Vec3
	angularVelocity   mgl64.Vec3
	links             map[string]ecs.EntityID
	linearVelocities  map[string]mgl64.Vec3
	angularVelocities map[string]mgl64.Vec3

	log *zap.Logger
}

// NewVelocityControlSystem creates a router. An empty topic selects the
// model's default command topic.
func NewVelocityControlSystem(node *transport.Node, topic string, linkNames []string, log *zap.Logger) *VelocityControlSystem {
	return &VelocityControlSystem{
		node:              node,
		topic:             topic,
		linkNames:         append([]string(nil), linkNames...),
		linkVels:          make(map[string]transport.Twist),
		links:             make(map[string]ecs.EntityID),
		linearVelocities:  make(map[string]mgl64.Vec3),
		angularVelocities: make(map[string]mgl64.Vec3),
		log:               log,
	}
}

func (s *VelocityControlSystem) Active() bool { return s.active }

// Topic returns the resolved model command topic once configured.
func (s *VelocityControlSystem) Topic() string { return s.topic }

func (s *VelocityControlSystem) Configure(entity ecs.EntityID, ecm *world.ECM) {
	s.model = world.NewModel(entity)
	if !s.model.Valid(ecm) {
		s.log.Error("velocity control must be attached to a model entity, failed to initialize",
			zap.Stringer("entity", entity))
		return
	}
	name := s.model.Name(ecm)
	if s.topic == "" {
		s.topic = ModelCmdVelTopic(name)
	}

	sub, err := transport.Subscribe(s.node, s.topic, s.OnCmdVel)
	if err != nil {
		s.log.Error("velocity control subscribe failed, failed to initialize",
			zap.String("topic", s.topic), zap.Error(err))
		return
	}
	s.subs = append(s.subs, sub)
	s.log.Info("velocity control subscribing to twist messages", zap.String("topic", s.topic))

	for _, link := range s.linkNames {
		topic := LinkCmdVelTopic(name, link)
		sub, err := transport.Subscribe(s.node, topic, s.OnLinkCmdVel)
		if err != nil {
			s.log.Error("link velocity subscribe failed",
				zap.String("link", link), zap.String("topic", topic), zap.Error(err))
			continue
		}
		s.subs = append(s.subs, sub)
		s.log.Info("velocity control subscribing to twist messages", zap.String("topic", topic))
	}
	s.active = true
}

// OnCmdVel buffers a model command. Called from bus goroutines.
func (s *VelocityControlSystem) OnCmdVel(msg transport.Twist, _ transport.MessageInfo) {
	s.mu.Lock()
	s.targetVel = msg
	s.mu.Unlock()
}

// OnLinkCmdVel buffers a link command for every configured link whose name
// occurs in the source topic. Called from bus goroutines.
func (s *VelocityControlSystem) OnLinkCmdVel(msg transport.Twist, info transport.MessageInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, link := range s.linkNames {
		if strings.Contains(info.Topic, link) {
			s.linkVels[link] = msg
		}
	}
}

func (s *VelocityControlSystem) PreUpdate(info coresys.UpdateInfo, ecm *world.ECM) {
	if info.Dt < 0 {
		s.log.Warn("detected jump back in time, system may not work properly",
			zap.Duration("dt", info.Dt))
	}
	if info.Paused || !s.active {
		return
	}
	s.stage()
	s.write(ecm)
}

// stage copies the buffered commands into the tick-owned working fields.
func (s *VelocityControlSystem) stage() {
	s.mu.Lock()
	target := s.targetVel
	var pending map[string]transport.Twist
	if len(s.linkVels) > 0 {
		pending = make(map[string]transport.Twist, len(s.linkVels))
		for k, v := range s.linkVels {
			pending[k] = v
		}
	}
	s.mu.Unlock()

	s.linearVelocity = target.Linear.Vec()
	s.angularVelocity = target.Angular.Vec()
	for link, msg := range pending {
		s.linearVelocities[link] = msg.Linear.Vec()
		s.angularVelocities[link] = msg.Angular.Vec()
	}
}

func (s *VelocityControlSystem) write(ecm *world.ECM) {
	modelEnt := s.model.Entity()
	ecm.AngularVelCmds.Upsert(modelEnt, component.AngularVelocityCmd{Vec: s.angularVelocity})
	ecm.LinearVelCmds.Upsert(modelEnt, component.LinearVelocityCmd{Vec: s.linearVelocity})

	for _, name := range s.linkNames {
		link, ok := s.resolveLink(name, ecm)
		if !ok {
			continue
		}
		if ang, ok := s.angularVelocities[name]; ok {
			ecm.AngularVelCmds.Upsert(link, component.AngularVelocityCmd{Vec: ang})
		} else {
			s.log.Warn("no angular velocity found for link", zap.String("link", name))
		}
		if lin, ok := s.linearVelocities[name]; ok {
			ecm.LinearVelCmds.Upsert(link, component.LinearVelocityCmd{Vec: lin})
		} else {
			s.log.Warn("no linear velocity found for link", zap.String("link", name))
		}
	}
}

// resolveLink returns the cached entity for name, looking it up when it is
// missing or the cached entity was destroyed.
func (s *VelocityControlSystem) resolveLink(name string, ecm *world.ECM) (ecs.EntityID, bool) {
	if link, ok := s.links[name]; ok {
		if ecm.Alive(link) {
			return link, true
		}
		delete(s.links, name)
	}
	link := s.model.LinkByName(ecm, name)
	if link.IsNull() {
		s.log.Warn("failed to find link",
			zap.String("link", name),
			zap.String("model", s.model.Name(ecm)))
		return ecs.Null, false
	}
	s.links[name] = link
	return link, true
}

// Close unsubscribes from every topic.
func (s *VelocityControlSystem) Close() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}
