package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func compileSources(sources ...Source) (*Program, *Diagnostics) {
	return Compile(sources, Options{Quiet: true})
}

func firstErrorKind(diags *Diagnostics) ErrorKind {
	for _, d := range diags.All {
		if !d.Warning {
			return d.Kind
		}
	}
	return InternalErrorKind
}

// The end to end scenarios. The driver maps "no errors" to exit 0, any
// error to exit 42 and warnings-only to exit 43.

func TestCompile_MinimalProgram(t *testing.T) {
	_, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public static int test() { return 123; }
	}
	`})
	assert.False(t, diags.HasErrors())
	assert.False(t, diags.HasWarnings())
}

func TestCompile_FinalOverride(t *testing.T) {
	_, diags := compileSources(
		Source{"A.java", `
		public class A {
			public A() {}
			public final int test() { return 0; }
		}
		`},
		Source{"B.java", `
		public class B extends A {
			public B() {}
			public int test() { return 1; }
		}
		`},
	)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, HierarchyErrorKind, firstErrorKind(diags))
}

func TestCompile_DefiniteAssignment(t *testing.T) {
	_, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public static int test() { int x; return x; }
	}
	`})
	assert.True(t, diags.HasErrors())
	assert.Equal(t, DefiniteAssignErrorKind, firstErrorKind(diags))
}

func TestCompile_UnreachableIsWarning(t *testing.T) {
	_, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public static int test() { if (true) return 1; return 2; }
	}
	`})
	assert.False(t, diags.HasErrors())
	assert.True(t, diags.HasWarnings())
}

func TestCompile_CyclicHierarchy(t *testing.T) {
	_, diags := compileSources(
		Source{"A.java", "public class A extends B { public A() {} }"},
		Source{"B.java", "public class B extends A { public B() {} }"},
	)
	assert.True(t, diags.HasErrors())
	assert.Equal(t, HierarchyErrorKind, firstErrorKind(diags))
}

func TestCompile_ImportRules(t *testing.T) {
	testDatas := []struct {
		name    string
		sources []Source
		kind    ErrorKind
		ok      bool
	}{
		{
			name: "single type import resolves",
			sources: []Source{
				{"A.java", "package p; public class A { public A() {} }"},
				{"B.java", "import p.A; public class B extends A { public B() {} }"},
			},
			ok: true,
		},
		{
			name: "import of missing type",
			sources: []Source{
				{"B.java", "import p.Missing; public class B { public B() {} }"},
			},
			kind: EnvironmentErrorKind,
		},
		{
			name: "on demand import",
			sources: []Source{
				{"A.java", "package p; public class A { public A() {} }"},
				{"B.java", "import p.*; public class B extends A { public B() {} }"},
			},
			ok: true,
		},
		{
			name: "ambiguous on demand",
			sources: []Source{
				{"A.java", "package p; public class A { public A() {} }"},
				{"q/A.java", "package q; public class A { public A() {} }"},
				{"B.java", "import p.*; import q.*; public class B extends A { public B() {} }"},
			},
			kind: EnvironmentErrorKind,
		},
		{
			name: "clashing single type imports",
			sources: []Source{
				{"A.java", "package p; public class A { public A() {} }"},
				{"q/A.java", "package q; public class A { public A() {} }"},
				{"B.java", "import p.A; import q.A; public class B { public B() {} }"},
			},
			kind: EnvironmentErrorKind,
		},
		{
			name: "duplicate canonical name",
			sources: []Source{
				{"A.java", "package p; public class A { public A() {} }"},
				{"p2/A.java", "package p; public class A { public A() {} }"},
			},
			kind: EnvironmentErrorKind,
		},
		{
			name: "java.lang implicitly imported",
			sources: []Source{
				{"B.java", `
				public class B {
					public B() {}
					public String s() { return "hi"; }
				}
				`},
			},
			ok: true,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(testData.sources...)
		if testData.ok {
			assert.False(t, diags.HasErrors(), testData.name)
		} else {
			assert.True(t, diags.HasErrors(), testData.name)
			assert.Equal(t, testData.kind, firstErrorKind(diags), testData.name)
		}
	}
}

func TestCompile_NameResolution(t *testing.T) {
	testDatas := []struct {
		name string
		data string
		ok   bool
	}{
		{
			name: "locals shadow fields",
			data: `
			public class A {
				public int x;
				public A() {}
				public int m() { int x = 3; return x; }
			}
			`,
			ok: true,
		},
		{
			name: "this in static context",
			data: `
			public class A {
				public A() {}
				public static int m() { return this.hashCode(); }
			}
			`,
			ok: false,
		},
		{
			name: "instance field in static context",
			data: `
			public class A {
				public int x;
				public A() {}
				public static int m() { return x; }
			}
			`,
			ok: false,
		},
		{
			name: "duplicate local in nested scope",
			data: `
			public class A {
				public A() {}
				public int m() { int x = 1; { int x = 2; } return x; }
			}
			`,
			ok: false,
		},
		{
			name: "forward field reference",
			data: `
			public class A {
				public int x = y;
				public int y = 1;
				public A() {}
			}
			`,
			ok: false,
		},
		{
			name: "unknown name",
			data: `
			public class A {
				public A() {}
				public int m() { return nope; }
			}
			`,
			ok: false,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(Source{"A.java", testData.data})
		assert.Equal(t, !testData.ok, diags.HasErrors(), testData.name)
	}
}
