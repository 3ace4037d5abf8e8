package tree

// Catalog returns the directory of the component API. A fresh copy is built
// on every call and nothing mutates it afterwards.
func Catalog() []Node {
	return []Node{
		Dir("components", "components",
			Dir("door", "components?component_id=door"),
			Dir("engine", "components?component_id=engine",
				Leaf("faults", "faults?component_id=engine"),
				Leaf("operation_update", "operations?component_id=engine"),
			),
		),
	}
}

// RootKey is expanded when the explorer starts.
const RootKey = "components"
