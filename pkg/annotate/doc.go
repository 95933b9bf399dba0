// Package annotate implements span re-annotation: parsing entity-span
// metadata out of the wire format and rewriting sentences with [SUB]/[OBJ]
// boundary markers without disturbing either span's text.
package annotate
