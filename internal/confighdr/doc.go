// Package confighdr reads and writes the textual forms of a capability
// descriptor: the guarded preprocessor header consumed by C builds, a Go
// source file of constants, and the JSON record exchanged with other probing
// tools.
//
// Headers are parsed line by line. Only the directives a configuration header
// uses are understood: #ifndef guards, #define, #undef, the commented
// "/* #undef NAME */" absence marker, and #endif. Anything else is reported
// and skipped.
package confighdr
