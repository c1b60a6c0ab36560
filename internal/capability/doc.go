// Package capability defines the platform capability contract shared by the
// probe, the header emitter, and every consumer of platform facts.
//
// # Data model
//
// A capability is a named fact about the target platform, identified by a
// canonical preprocessor-style Name (WORDS_BIGENDIAN, SIZEOF_LONG, ...). Each
// name has exactly one meaning across the whole build; Catalogue lists the
// known names together with their kind (flag or numeric), the header comment
// emitted for them, and the fallback consumers apply when the fact is absent.
//
// Absence is meaningful. A capability that is not defined asserts that the
// feature is not present; it never means "unknown". Queries for unset or
// unknown names therefore answer false and never fail.
//
// # Building a descriptor
//
// Facts are collected through a Builder and frozen into an immutable
// Descriptor:
//
//   - Define is the unguarded form. Redefining a name with the same value is a
//     no-op; a conflicting value returns an *Error of kind ErrConflict.
//   - DefineGuarded is the "#ifndef NAME / #define NAME" form. The first
//     definition wins and later guarded definitions are ignored.
//   - MarkAbsent records that a probe asserted absence (the commented
//     "#undef NAME" form inside a guard). It never removes an existing
//     definition.
//   - DefineAbsent is the unguarded absence. It conflicts with an existing
//     definition, and later Define calls for the name conflict with it.
//
// Build validates the collected facts and returns the Descriptor. After that
// point nothing can change it; a new platform means a new Builder.
//
// # Compile-time selection
//
// BigEndian and NativeLongSize are constants resolved through build
// constraints for the platform this binary is compiled for. Host returns the
// same facts as a Descriptor, built exactly once.
package capability
