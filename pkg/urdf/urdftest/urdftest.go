// Package urdftest provides a small arm-and-hand URDF for tests.
package urdftest

import (
	"os"
	"path/filepath"
	"testing"
)

// Package is the package name used by mesh references in Model.
const Package = "RM75B_with_dexterous_hand"

// Counts of elements in Model.
const (
	Links         = 10
	Joints        = 9
	Materials     = 5
	Meshes        = 8 // mesh elements with a filename
	PackageMeshes = 7 // of which use the package:// scheme
)

// Controllable lists the controllable joints of Model in document order.
var Controllable = []string{"joint1", "joint2", "joint3", "index_joint", "thumb_slide"}

// MeshFiles are the mesh paths Model references, relative to the model root.
var MeshFiles = []string{
	"meshes/base_link.STL",
	"meshes/link1.STL",
	"meshes/link2.STL",
	"meshes/link3.STL",
	"meshes/hand_base.STL",
	"meshes/index_proximal.STL",
}

// Model is a reduced RM75-style arm with a dexterous hand: three arm joints, a fixed
// hand mount, a finger, a sliding thumb, a continuous wrist camera and a degenerate joint.
const Model = `<?xml version="1.0" encoding="utf-8"?>
<robot name="rm75_mini">
  <material name="white"><color rgba="1 1 1 1"/></material>
  <material name="black"><color rgba="0 0 0 1"/></material>

  <link name="base_link">
    <inertial>
      <origin xyz="0 0 0.05" rpy="0 0 0"/>
      <mass value="0.84"/>
      <inertia ixx="0.0017" ixy="0" ixz="0" iyy="0.0017" iyz="0" izz="0.0009"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/base_link.STL"/></geometry>
      <material name="white"/>
    </visual>
    <collision>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/base_link.STL"/></geometry>
    </collision>
  </link>
  <link name="link1">
    <inertial>
      <mass value="0.59"/>
      <inertia ixx="0.0012" ixy="0" ixz="0" iyy="0.0012" iyz="0" izz="0.0006"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/link1.STL"/></geometry>
      <material name="white"/>
    </visual>
  </link>
  <link name="link2">
    <inertial>
      <mass value="0.43"/>
      <inertia ixx="0.0009" ixy="0" ixz="0" iyy="0.0009" iyz="0" izz="0.0004"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/link2.STL"/></geometry>
    </visual>
  </link>
  <link name="link3">
    <inertial>
      <mass value="0.29"/>
      <inertia ixx="0.0005" ixy="0" ixz="0" iyy="0.0005" iyz="0" izz="0.0002"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/link3.STL"/></geometry>
    </visual>
  </link>
  <link name="hand_base">
    <inertial>
      <mass value="0.35"/>
      <inertia ixx="0.0004" ixy="0" ixz="0" iyy="0.0004" iyz="0" izz="0.0002"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/hand_base.STL"/></geometry>
      <material name="black"/>
    </visual>
  </link>
  <link name="index_proximal">
    <inertial>
      <mass value="0.01"/>
      <inertia ixx="0.000001" ixy="0" ixz="0" iyy="0.000001" iyz="0" izz="0.000001"/>
    </inertial>
    <visual>
      <geometry><mesh filename="package://RM75B_with_dexterous_hand/meshes/index_proximal.STL"/></geometry>
    </visual>
  </link>
  <link name="thumb_tip">
    <visual>
      <geometry><box size="0.01 0.01 0.02"/></geometry>
    </visual>
  </link>
  <link name="wrist_camera">
    <visual>
      <geometry><mesh filename="file:///opt/meshes/camera.dae"/></geometry>
    </visual>
  </link>
  <link name="tool_frame"/>
  <link name="palm_sensor"/>

  <joint name="joint1" type="revolute">
    <origin xyz="0 0 0.2405" rpy="0 0 0"/>
    <parent link="base_link"/>
    <child link="link1"/>
    <axis xyz="0 0 1"/>
    <limit lower="-3.106" upper="3.106" effort="60" velocity="3.14"/>
    <dynamics damping="0.001"/>
  </joint>
  <joint name="joint2" type="revolute">
    <origin xyz="0 0 0" rpy="-1.5708 0 0"/>
    <parent link="link1"/>
    <child link="link2"/>
    <axis xyz="0 0 1"/>
    <limit lower="-2.269" upper="2.269" effort="60" velocity="3.14"/>
  </joint>
  <joint name="joint3" type="revolute">
    <origin xyz="0 -0.256 0" rpy="1.5708 0 0"/>
    <parent link="link2"/>
    <child link="link3"/>
    <axis xyz="0 0 1"/>
    <limit lower="-1" upper="1" effort="30" velocity="3.92"/>
  </joint>
  <joint name="hand_mount" type="fixed">
    <origin xyz="0 0 0.144" rpy="0 0 0"/>
    <parent link="link3"/>
    <child link="hand_base"/>
  </joint>
  <joint name="index_joint" type="revolute">
    <origin xyz="0.03 0 0.09" rpy="0 0 0"/>
    <parent link="hand_base"/>
    <child link="index_proximal"/>
    <axis xyz="0 1 0"/>
    <limit lower="0" upper="1.47" effort="1" velocity="1"/>
  </joint>
  <joint name="thumb_slide" type="prismatic">
    <origin xyz="-0.03 0 0.05" rpy="0 0 0"/>
    <parent link="hand_base"/>
    <child link="thumb_tip"/>
    <axis xyz="1 0 0"/>
    <limit lower="0" upper="0.02" effort="5" velocity="0.1"/>
  </joint>
  <joint name="camera_spin" type="continuous">
    <origin xyz="0 0.04 0.02" rpy="0 0 0"/>
    <parent link="hand_base"/>
    <child link="wrist_camera"/>
    <axis xyz="0 0 1"/>
  </joint>
  <joint name="tool_joint" type="fixed">
    <origin xyz="0 0 0.12" rpy="0 0 0"/>
    <parent link="hand_base"/>
    <child link="tool_frame"/>
  </joint>
  <joint name="palm_joint" type="revolute">
    <origin xyz="0 0 0.03" rpy="0 0 0"/>
    <parent link="hand_base"/>
    <child link="palm_sensor"/>
    <axis xyz="0 0 1"/>
    <limit lower="0" upper="0" effort="1" velocity="1"/>
  </joint>
</robot>
`

// WriteModel writes Model to <dir>/urdf/model.urdf and, when withMeshes is set, an
// empty file for every entry of MeshFiles. It returns the URDF path.
func WriteModel(t testing.TB, dir string, withMeshes bool) string {
	t.Helper()

	path := filepath.Join(dir, "urdf", "model.urdf")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(Model), 0o644); err != nil {
		t.Fatal(err)
	}
	if withMeshes {
		for _, m := range MeshFiles {
			WriteFile(t, filepath.Join(dir, m), "solid mesh\nendsolid mesh\n")
		}
	}
	return path
}

// WriteFile writes contents to path, creating parent directories.
func WriteFile(t testing.TB, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}
