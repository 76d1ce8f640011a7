package spice

// Filter returns the dishes whose spice list contains every name in basket,
// in input order. An empty basket matches every dish. The input is not
// modified and an empty result is not an error.
func Filter(dishes []Dish, basket []string) []Dish {
	out := make([]Dish, 0, len(dishes))
	for _, d := range dishes {
		if d.UsesAll(basket) {
			out = append(out, d)
		}
	}
	return out
}
