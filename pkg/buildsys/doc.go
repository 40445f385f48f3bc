// Package buildsys tracks the lifecycle of the CMake build directory and drives the external
// tools that configure, build and lint the project.
// The build directory's presence is the only state: it exists once a preset has been picked
// and configured, and picking a different preset requires an explicit clean.
package buildsys
