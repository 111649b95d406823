package compiler

// The hierarchy pass validates the class/interface graph and computes, per
// type, the contains set: every method visible through the type, declared or
// inherited, with overriding methods replacing the inherited entry in place.
// The layout pass does not depend on positions in the contains set: it
// assigns vtable slots by method signature.

func checkHierarchy(index *TypeIndex, diags *Diagnostics) {
	object := index.Lookup("java.lang.Object")
	if object == nil {
		panic("java.lang.Object missing from the type index")
	}

	for _, decl := range index.Types() {
		checkParents(decl, object, diags)
	}
	if diags.HasErrors() {
		return
	}

	// Cycles would make the contains computation recurse forever, so they
	// are rejected before anything walks upward.
	for _, decl := range index.Types() {
		checkCycle(decl, map[*TypeAst]bool{}, diags)
	}
	if diags.HasErrors() {
		return
	}

	h := &hierarchyChecker{object: object, diags: diags}
	for _, decl := range index.Types() {
		h.computeContains(decl)
	}
	for _, decl := range index.Types() {
		h.checkDeclarations(decl)
	}
}

func checkParents(decl *TypeAst, object *TypeAst, diags *Diagnostics) {
	file := decl.Unit.FileName
	if decl.IsClass() {
		if decl.SuperClass != nil {
			if !decl.SuperClass.IsClass() {
				diags.errorf(HierarchyErrorKind, file, decl.line, decl.col,
					"class %s cannot extend interface %s", decl.Name, decl.SuperClass.Canonical)
			} else if decl.SuperClass.Modifiers.Has(FinalModifier) {
				diags.errorf(HierarchyErrorKind, file, decl.line, decl.col,
					"class %s cannot extend final class %s", decl.Name, decl.SuperClass.Canonical)
			}
		} else if decl != object {
			decl.SuperClass = object
		}
	}
	seen := map[*TypeAst]bool{}
	for _, iface := range decl.Interfaces {
		if iface.IsClass() {
			diags.errorf(HierarchyErrorKind, file, decl.line, decl.col,
				"%s cannot extend or implement class %s", decl.Name, iface.Canonical)
			continue
		}
		if seen[iface] {
			diags.errorf(HierarchyErrorKind, file, decl.line, decl.col,
				"%s repeats interface %s", decl.Name, iface.Canonical)
		}
		seen[iface] = true
	}
}

func checkCycle(decl *TypeAst, visited map[*TypeAst]bool, diags *Diagnostics) {
	if visited[decl] {
		diags.errorf(HierarchyErrorKind, decl.Unit.FileName, decl.line, decl.col,
			"cyclic type hierarchy through %s", decl.Canonical)
		return
	}
	visited[decl] = true
	if decl.SuperClass != nil {
		checkCycle(decl.SuperClass, copyVisited(visited), diags)
	}
	for _, iface := range decl.Interfaces {
		checkCycle(iface, copyVisited(visited), diags)
	}
}

func copyVisited(visited map[*TypeAst]bool) map[*TypeAst]bool {
	clone := make(map[*TypeAst]bool, len(visited))
	for k, v := range visited {
		clone[k] = v
	}
	return clone
}

type hierarchyChecker struct {
	object *TypeAst
	diags  *Diagnostics
}

func (h *hierarchyChecker) errorf(decl *TypeAst, line, col int, format string, args ...interface{}) {
	h.diags.errorf(HierarchyErrorKind, decl.Unit.FileName, line, col, format, args...)
}

// computeContains fills decl.Contains and decl.InheritedFields. Supertypes
// are computed first and memoized, so the whole thing is one topological
// sweep over the (now known acyclic) graph.
func (h *hierarchyChecker) computeContains(decl *TypeAst) {
	if decl.checked {
		return
	}
	decl.checked = true

	var contains []*MethodAst
	slot := map[string]int{}
	add := func(m *MethodAst) {
		if i, ok := slot[m.Signature()]; ok {
			contains[i] = m
			return
		}
		slot[m.Signature()] = len(contains)
		contains = append(contains, m)
	}

	// Superclass methods come first and keep their order.
	if decl.IsClass() && decl.SuperClass != nil {
		h.computeContains(decl.SuperClass)
		for _, m := range decl.SuperClass.Contains {
			add(m)
		}
		decl.InheritedFields = h.inheritFields(decl)
	}

	// Interface methods merge next. Multiple inheritance of the same
	// signature must agree on return type; a concrete method already in the
	// set satisfies an abstract one.
	for _, iface := range decl.Interfaces {
		h.computeContains(iface)
		for _, m := range iface.Contains {
			i, ok := slot[m.Signature()]
			if !ok {
				add(m)
				continue
			}
			existing := contains[i]
			if existing == m {
				continue
			}
			if !existing.ReturnTP.equals(m.ReturnTP) {
				h.errorf(decl, decl.line, decl.col,
					"%s inherits method %s with conflicting return types", decl.Name, m.Signature())
				continue
			}
			if existing.Modifiers.Has(StaticModifier) != m.Modifiers.Has(StaticModifier) {
				h.errorf(decl, decl.line, decl.col,
					"%s inherits method %s with conflicting staticness", decl.Name, m.Signature())
				continue
			}
			if m.Modifiers.Has(PublicModifier) && existing.Modifiers.Has(ProtectedModifier) {
				h.errorf(decl, decl.line, decl.col,
					"%s inherits protected %s where a public one is required", decl.Name, m.Signature())
				continue
			}
			// Concrete wins over abstract; two abstracts keep the first.
			if existing.Modifiers.Has(AbstractModifier) && !m.Modifiers.Has(AbstractModifier) {
				contains[i] = m
			}
		}
	}

	// Interfaces implicitly contain Object's public methods so that calls
	// through an interface reference type check.
	if !decl.IsClass() && decl != h.object {
		h.computeContains(h.object)
		for _, m := range h.object.Contains {
			if !m.Modifiers.Has(PublicModifier) || m.Modifiers.Has(StaticModifier) {
				continue
			}
			if i, ok := slot[m.Signature()]; ok {
				if !contains[i].ReturnTP.equals(m.ReturnTP) {
					h.errorf(decl, decl.line, decl.col,
						"interface %s declares %s conflicting with java.lang.Object", decl.Name, m.Signature())
				}
				continue
			}
			add(m)
		}
	}

	// Declared methods replace inherited ones at the inherited position.
	for _, m := range decl.Methods {
		if i, ok := slot[m.Signature()]; ok {
			h.checkReplace(decl, contains[i], m)
		}
		add(m)
	}

	decl.Contains = contains

	// A concrete class must have a body for everything it contains.
	if decl.IsClass() && !decl.Modifiers.Has(AbstractModifier) {
		for _, m := range decl.Contains {
			if m.Modifiers.Has(AbstractModifier) {
				h.errorf(decl, decl.line, decl.col,
					"non-abstract class %s does not implement %s", decl.Name, m.Signature())
			}
		}
	}
}

// checkReplace validates that replacer may override replaced.
func (h *hierarchyChecker) checkReplace(decl *TypeAst, replaced, replacer *MethodAst) {
	if replaced == replacer {
		return
	}
	if !replacer.ReturnTP.equals(replaced.ReturnTP) {
		h.errorf(decl, replacer.line, replacer.col,
			"%s overrides %s with a different return type", replacer.Signature(), replaced.Owner.Canonical)
	}
	if replacer.Modifiers.Has(StaticModifier) != replaced.Modifiers.Has(StaticModifier) {
		h.errorf(decl, replacer.line, replacer.col,
			"%s overrides %s with different staticness", replacer.Signature(), replaced.Owner.Canonical)
	}
	if replaced.Modifiers.Has(FinalModifier) {
		h.errorf(decl, replacer.line, replacer.col,
			"%s overrides a final method of %s", replacer.Signature(), replaced.Owner.Canonical)
	}
	if replaced.Modifiers.Has(PublicModifier) && replacer.Modifiers.Has(ProtectedModifier) {
		h.errorf(decl, replacer.line, replacer.col,
			"%s narrows visibility of a public method of %s", replacer.Signature(), replaced.Owner.Canonical)
	}
}

// inheritFields collects superclass fields the class does not shadow,
// keeping hierarchical order: the farthest ancestor's fields first.
func (h *hierarchyChecker) inheritFields(decl *TypeAst) []*FieldAst {
	shadowed := map[string]bool{}
	for _, f := range decl.Fields {
		shadowed[f.Name] = true
	}
	var inherited []*FieldAst
	super := decl.SuperClass
	for _, f := range super.InheritedFields {
		if !shadowed[f.Name] {
			inherited = append(inherited, f)
		}
	}
	for _, f := range super.Fields {
		if !shadowed[f.Name] {
			inherited = append(inherited, f)
		}
	}
	return inherited
}

// checkDeclarations enforces the per type uniqueness rules and the implicit
// super constructor requirement.
func (h *hierarchyChecker) checkDeclarations(decl *TypeAst) {
	sigs := map[string]bool{}
	for _, m := range decl.Methods {
		if sigs[m.Signature()] {
			h.errorf(decl, m.line, m.col, "%s declares duplicate method %s", decl.Name, m.Signature())
		}
		sigs[m.Signature()] = true
	}
	ctorSigs := map[string]bool{}
	for _, c := range decl.Constructors {
		if ctorSigs[c.Signature()] {
			h.errorf(decl, c.line, c.col, "%s declares duplicate constructor %s", decl.Name, c.Signature())
		}
		ctorSigs[c.Signature()] = true
	}
	fieldNames := map[string]bool{}
	for _, f := range decl.Fields {
		if fieldNames[f.Name] {
			h.errorf(decl, f.line, f.col, "%s declares duplicate field %s", decl.Name, f.Name)
		}
		fieldNames[f.Name] = true
	}

	// Every constructor chain calls the superclass zero argument
	// constructor, so one has to exist.
	if decl.IsClass() && decl.SuperClass != nil {
		if findConstructor(decl.SuperClass, 0) == nil {
			h.errorf(decl, decl.line, decl.col,
				"superclass %s of %s has no zero-argument constructor", decl.SuperClass.Canonical, decl.Name)
		}
	}
}

func findConstructor(decl *TypeAst, arity int) *ConstructorAst {
	for _, c := range decl.Constructors {
		if len(c.Params) == arity {
			return c
		}
	}
	return nil
}
