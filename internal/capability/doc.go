// Package capability describes the concrete media formats a conversion
// unit can accept or produce.
//
// A Descriptor is an immutable description of one format: its canonical
// tag, file extension, container (MIME) identity, directionality and the
// Family it belongs to. The Family is a closed enumeration used by the
// conversion branch logic; distinct formats may share a Family (for
// example ico and ani are both icon containers).
//
// A Set collects Descriptors with a two-phase lifecycle: entries are
// appended during construction and runtime probing, then the set is
// frozen and becomes read-only. Entries appended during probing carry
// Probed=true so tests can distinguish them from static declarations.
package capability
