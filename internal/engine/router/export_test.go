package router

// CanonicalExported exposes canonical for testing.
var CanonicalExported = canonical
