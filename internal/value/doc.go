// Package value defines the closed scalar union carried on every port of a
// flow graph, together with the small type system used to validate
// connections and drive arithmetic.
//
// A Value is exactly one of four variants: a 32-bit signed integer, a 32-bit
// float, a 64-bit float, or a UTF-8 string. There is no null. Declared port
// types are parsed into a Type, which pairs a base Kind with an optional
// "async_" qualifier. The qualifier marks an asynchronous source but never
// participates in compatibility or arithmetic checks.
package value
