package physics

import "strings"

// ContactMaterial describes how two material classes respond on contact.
type ContactMaterial struct {
	Friction    float64
	Restitution float64
	Stiffness   float64
}

// pairKey builds an order-independent lookup key for a material pair.
func pairKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "|" + b
}
