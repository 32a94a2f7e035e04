package kinematics

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/gwillem/urdfcheck/pkg/urdf"
	"github.com/gwillem/urdfcheck/pkg/urdf/urdftest"
)

func assertVec(t *testing.T, want, got r3.Vec) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-3, "X")
	assert.InDelta(t, want.Y, got.Y, 1e-3, "Y")
	assert.InDelta(t, want.Z, got.Z, 1e-3, "Z")
}

func mustChain(t *testing.T) *Chain {
	t.Helper()
	m, err := urdf.Parse([]byte(urdftest.Model))
	require.NoError(t, err)
	c, err := NewChain(m)
	require.NoError(t, err)
	return c
}

func TestNewChain_Order(t *testing.T) {
	c := mustChain(t)

	assert.Equal(t, "base_link", c.Root())
	assert.Len(t, c.Links(), urdftest.Links)
	assert.Len(t, c.Segments(), urdftest.Joints)

	pos := map[string]int{}
	for i, l := range c.Links() {
		pos[l] = i
	}
	for _, s := range c.Segments() {
		assert.Less(t, pos[s.Parent], pos[s.Child], s.Joint)
	}
}

func TestLinkPoses_Zero(t *testing.T) {
	c := mustChain(t)
	poses := c.LinkPoses(Identity(), nil)

	assertVec(t, r3.Vec{}, poses["base_link"].Point)
	assertVec(t, r3.Vec{Z: 0.2405}, poses["link1"].Point)
	assertVec(t, r3.Vec{Z: 0.2405}, poses["link2"].Point)
	assertVec(t, r3.Vec{Z: 0.4965}, poses["link3"].Point)
	assertVec(t, r3.Vec{Z: 0.6405}, poses["hand_base"].Point)
	assertVec(t, r3.Vec{X: 0.03, Z: 0.7305}, poses["index_proximal"].Point)
}

func TestLinkPoses_Revolute(t *testing.T) {
	c := mustChain(t)
	q := make([]float64, urdftest.Joints)
	q[1] = math.Pi / 2 // joint2

	poses := c.LinkPoses(Identity(), q)
	assertVec(t, r3.Vec{X: 0.256, Z: 0.2405}, poses["link3"].Point)
	assertVec(t, r3.Vec{X: 0.4, Z: 0.2405}, poses["hand_base"].Point)
}

func TestLinkPoses_Prismatic(t *testing.T) {
	c := mustChain(t)
	q := make([]float64, urdftest.Joints)
	q[5] = 0.02 // thumb_slide

	poses := c.LinkPoses(Identity(), q)
	assertVec(t, r3.Vec{X: -0.01, Z: 0.6905}, poses["thumb_tip"].Point)
}

func TestLinkPoses_Base(t *testing.T) {
	c := mustChain(t)
	base := Translation(r3.Vec{Z: 0.5})

	poses := c.LinkPoses(base, nil)
	assertVec(t, r3.Vec{Z: 1.1405}, poses["hand_base"].Point)
	assert.InDelta(t, 0.5, LowestZ(poses), 1e-9)
}

func TestNewChain_Errors(t *testing.T) {
	tests := map[string]string{
		"two parents": `<robot name="r">
			<link name="a"/><link name="b"/><link name="c"/>
			<joint name="j1" type="fixed"><parent link="a"/><child link="c"/></joint>
			<joint name="j2" type="fixed"><parent link="b"/><child link="c"/></joint>
		</robot>`,
		"dangling": `<robot name="r">
			<link name="a"/><link name="b"/>
			<joint name="j1" type="fixed"><parent link="a"/><child link="b"/></joint>
			<joint name="j2" type="fixed"><parent link="x"/><child link="y"/></joint>
		</robot>`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			m, err := urdf.Parse([]byte(doc))
			require.NoError(t, err)
			_, err = NewChain(m)
			require.Error(t, err)
		})
	}

	m, err := urdf.Parse([]byte(`<robot name="r"/>`))
	require.NoError(t, err)
	_, err = NewChain(m)
	assert.True(t, errors.Is(err, urdf.ErrNoRoot))
}

func TestFromRPY(t *testing.T) {
	r := FromRPY(0, 0, math.Pi/2)
	assertVec(t, r3.Vec{Y: 1}, r.Rotate(r3.Vec{X: 1}))

	r = FromRPY(math.Pi/2, 0, 0)
	assertVec(t, r3.Vec{Z: 1}, r.Rotate(r3.Vec{Y: 1}))

	// yaw is applied after roll
	r = FromRPY(math.Pi/2, 0, math.Pi/2)
	assertVec(t, r3.Vec{Z: 1}, r.Rotate(r3.Vec{Y: 1}))
	assertVec(t, r3.Vec{Y: 1}, r.Rotate(r3.Vec{X: 1}))
}

func TestParseAxis(t *testing.T) {
	assertVec(t, r3.Vec{X: 1}, ParseAxis(nil))
	assertVec(t, r3.Vec{X: 1}, ParseAxis(&urdf.Axis{XYZ: "0 0 0"}))
	assertVec(t, r3.Vec{Z: 1}, ParseAxis(&urdf.Axis{XYZ: "0 0 2"}))
}

func TestCompose(t *testing.T) {
	a := Pose{Point: r3.Vec{X: 1}, Rot: FromRPY(0, 0, math.Pi/2)}
	b := Translation(r3.Vec{X: 1})
	got := Compose(a, b)
	assertVec(t, r3.Vec{X: 1, Y: 1}, got.Point)
	assertVec(t, r3.Vec{X: 1, Y: 2}, got.Transform(r3.Vec{X: 1}))
}
