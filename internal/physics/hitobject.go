package physics

// ObjType tags the element kind that produced a hit object.
type ObjType int

const (
	ObjGeneric ObjType = iota
	ObjPlayfield
	ObjBall
	ObjBumper
	ObjFlipper
	ObjGate
	ObjKicker
	ObjPlunger
	ObjPrimitive
	ObjRamp
	ObjRubber
	ObjSpinner
	ObjSurface
	ObjTrigger
	ObjHitTarget
	ObjDropTarget
)

var objTypeNames = map[ObjType]string{
	ObjGeneric:    "generic",
	ObjPlayfield:  "playfield",
	ObjBall:       "ball",
	ObjBumper:     "bumper",
	ObjFlipper:    "flipper",
	ObjGate:       "gate",
	ObjKicker:     "kicker",
	ObjPlunger:    "plunger",
	ObjPrimitive:  "primitive",
	ObjRamp:       "ramp",
	ObjRubber:     "rubber",
	ObjSpinner:    "spinner",
	ObjSurface:    "surface",
	ObjTrigger:    "trigger",
	ObjHitTarget:  "hittarget",
	ObjDropTarget: "droptarget",
}

func (t ObjType) String() string {
	if s, ok := objTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// EventSink receives element events. events.Bridge implements it.
type EventSink interface {
	FireGroupEvent(event string, args ...any)
}

// HitObject is a single collidable primitive.
type HitObject interface {
	// HitTest returns the time within dtime at which the ball hits the object,
	// or a negative value. coll is filled on success.
	HitTest(ball *Ball, dtime float64, coll *CollisionEvent) float64
	Collide(coll *CollisionEvent)
	Contact(coll *CollisionEvent, dtime float64)
	CalcHitBBox()
	Base() *HitObjectBase
}

// HitObjectBase carries the physics material and bookkeeping shared by all
// hit objects.
type HitObjectBase struct {
	Type              ObjType
	Name              string
	Elasticity        float64
	ElasticityFalloff float64
	Friction          float64
	// radians
	Scatter   float64
	Threshold float64

	Enabled    bool
	FireEvents bool
	Events     EventSink

	BBox BBox

	// shared with the element so toggling collidable is visible here
	Collidable *bool

	// balls currently inside a non-rigid volume (triggers, kickers)
	Volume *BallSet
	// OnHit replaces the default event handling after a collision.
	OnHit func(coll *CollisionEvent, normalSpeed float64)
}

func NewHitObjectBase(t ObjType) HitObjectBase {
	return HitObjectBase{Type: t, Enabled: true, BBox: InfiniteBBox()}
}

func (h *HitObjectBase) Base() *HitObjectBase { return h }

// IsEnabled combines the local flag with the owning element's collidable flag.
func (h *HitObjectBase) IsEnabled() bool {
	if !h.Enabled {
		return false
	}
	if h.Collidable != nil && !*h.Collidable {
		return false
	}
	return true
}

// SetMaterial copies the common physics values.
func (h *HitObjectBase) SetMaterial(m Material) {
	h.Elasticity = m.Elasticity
	h.ElasticityFalloff = m.ElasticityFalloff
	h.Friction = m.Friction
	h.Scatter = m.Scatter
}

// FireHitEvent emits "Hit" when the impact is at least as strong as the threshold.
func (h *HitObjectBase) FireHitEvent(ball *Ball, normalSpeed float64) {
	if !h.FireEvents || h.Events == nil {
		return
	}
	if abs(normalSpeed) >= h.Threshold {
		h.Events.FireGroupEvent("Hit", ball)
	}
}

// afterCollide runs the element hook or fires the default Hit event.
func (h *HitObjectBase) afterCollide(coll *CollisionEvent, normalSpeed float64) {
	if h.OnHit != nil {
		h.OnHit(coll, normalSpeed)
		return
	}
	h.FireHitEvent(coll.Ball, normalSpeed)
}

// Contact is the default resting-contact handling.
func (h *HitObjectBase) Contact(coll *CollisionEvent, dtime float64) {
	coll.Ball.HandleStaticContact(coll, h.Friction, dtime)
}

// Material is the resolved set of collision properties for a hit object.
type Material struct {
	Elasticity        float64
	ElasticityFalloff float64
	Friction          float64
	// radians
	Scatter float64
}

// BallSet tracks which balls are inside a volume.
type BallSet struct {
	balls map[*Ball]struct{}
}

func NewBallSet() *BallSet {
	return &BallSet{balls: make(map[*Ball]struct{})}
}

func (s *BallSet) Has(b *Ball) bool {
	_, ok := s.balls[b]
	return ok
}

func (s *BallSet) Add(b *Ball) {
	s.balls[b] = struct{}{}
}

func (s *BallSet) Remove(b *Ball) {
	delete(s.balls, b)
}

func (s *BallSet) Len() int {
	return len(s.balls)
}
