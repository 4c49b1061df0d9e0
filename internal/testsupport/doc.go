// Package testsupport holds helpers shared by package tests: temp-dir
// configs, opened stores, and a fake backend server.
package testsupport
