package kinematics

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/robot"
	"github.com/gwillem/urdfcheck/pkg/urdf"
)

// ErrDisconnected is returned when a joint cannot be reached from the root link.
var ErrDisconnected = errors.New("joint not reachable from root link")

type chainJoint struct {
	index  int // position in URDF document order
	name   string
	typ    robot.JointType
	parent string
	child  string
	origin Pose
	axis   r3.Vec
}

// Chain is the joint tree of a model, ordered so parents precede children.
type Chain struct {
	root   string
	joints []chainJoint
	links  []string
}

// NewChain builds the joint tree of m.
func NewChain(m *urdf.Model) (*Chain, error) {
	root, err := m.Root()
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]int, len(m.Joints))
	for i, j := range m.Joints {
		byParent[j.Parent.Link] = append(byParent[j.Parent.Link], i)
	}

	c := &Chain{root: root, links: []string{root}}
	queue := []string{root}
	seen := map[string]bool{root: true}
	for len(queue) > 0 {
		link := queue[0]
		queue = queue[1:]
		for _, i := range byParent[link] {
			j := m.Joints[i]
			if seen[j.Child.Link] {
				return nil, errors.Wrapf(ErrDisconnected, "link %q has more than one parent", j.Child.Link)
			}
			seen[j.Child.Link] = true
			c.joints = append(c.joints, chainJoint{
				index:  i,
				name:   j.Name,
				typ:    robot.ParseJointType(j.Type),
				parent: j.Parent.Link,
				child:  j.Child.Link,
				origin: FromOrigin(j.Origin),
				axis:   ParseAxis(j.Axis),
			})
			c.links = append(c.links, j.Child.Link)
			queue = append(queue, j.Child.Link)
		}
	}

	if len(c.joints) != len(m.Joints) {
		for _, j := range m.Joints {
			if !seen[j.Child.Link] || !seen[j.Parent.Link] {
				return nil, errors.Wrapf(ErrDisconnected, "joint %q", j.Name)
			}
		}
		return nil, ErrDisconnected
	}
	return c, nil
}

// Root returns the root link name.
func (c *Chain) Root() string {
	return c.root
}

// Links returns link names with the root first and parents before children.
func (c *Chain) Links() []string {
	return c.links
}

// Segment is a parent/child link pair connected by a joint.
type Segment struct {
	Joint  string
	Parent string
	Child  string
}

// Segments returns one segment per joint in tree order.
func (c *Chain) Segments() []Segment {
	segs := make([]Segment, 0, len(c.joints))
	for _, j := range c.joints {
		segs = append(segs, Segment{Joint: j.name, Parent: j.parent, Child: j.child})
	}
	return segs
}

// LinkPoses returns the world pose of every link. q is indexed by URDF joint order;
// joints beyond len(q) are at zero.
func (c *Chain) LinkPoses(base Pose, q []float64) map[string]Pose {
	poses := make(map[string]Pose, len(c.links))
	poses[c.root] = base
	for _, j := range c.joints {
		var pos float64
		if j.index < len(q) {
			pos = q[j.index]
		}
		local := j.origin
		switch j.typ {
		case robot.JointRevolute, robot.JointContinuous:
			local = Compose(local, Pose{Rot: r3.NewRotation(pos, j.axis)})
		case robot.JointPrismatic:
			local = Compose(local, Translation(r3.Scale(pos, j.axis)))
		}
		poses[j.child] = Compose(poses[j.parent], local)
	}
	return poses
}

// LowestZ returns the smallest Z of all link origins.
func LowestZ(poses map[string]Pose) float64 {
	lowest := math.Inf(1)
	for _, p := range poses {
		lowest = math.Min(lowest, p.Point.Z)
	}
	return lowest
}
