// Package httpapi is the optional HTTP surface over a Runner: saving and
// executing workflow definitions, and inspecting execution status and
// history. Grounded on albert-saclot-workflow-go-challenge's
// services/workflow package (the storage-interface Service plus
// gorilla/mux route loading and writeErrorJSON convention) and its
// main.go's gorilla/handlers CORS wiring. This layer is a thin adapter: all
// execution semantics live in pkg/runner, all wire-format concerns in
// pkg/jsonformat, and workflow-definition/execution persistence in
// pkg/execution's DefinitionStore/StateStore.
package httpapi
