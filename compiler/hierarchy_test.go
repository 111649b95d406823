package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHierarchy_Rules(t *testing.T) {
	testDatas := []struct {
		name    string
		sources []Source
		ok      bool
	}{
		{
			name: "class extends final class",
			sources: []Source{
				{"A.java", "public final class A { public A() {} }"},
				{"B.java", "public class B extends A { public B() {} }"},
			},
		},
		{
			name: "class extends interface",
			sources: []Source{
				{"I.java", "public interface I { }"},
				{"B.java", "public class B extends I { public B() {} }"},
			},
		},
		{
			name: "interface extends class",
			sources: []Source{
				{"A.java", "public class A { public A() {} }"},
				{"I.java", "public interface I extends A { }"},
			},
		},
		{
			name: "class implements class",
			sources: []Source{
				{"A.java", "public class A { public A() {} }"},
				{"B.java", "public class B implements A { public B() {} }"},
			},
		},
		{
			name: "repeated interface",
			sources: []Source{
				{"I.java", "public interface I { }"},
				{"B.java", "public class B implements I, I { public B() {} }"},
			},
		},
		{
			name: "unimplemented abstract method",
			sources: []Source{
				{"A.java", "public abstract class A { public A() {} public abstract int m(); }"},
				{"B.java", "public class B extends A { public B() {} }"},
			},
		},
		{
			name: "abstract method implemented",
			sources: []Source{
				{"A.java", "public abstract class A { public A() {} public abstract int m(); }"},
				{"B.java", "public class B extends A { public B() {} public int m() { return 1; } }"},
			},
			ok: true,
		},
		{
			name: "interface obligation satisfied",
			sources: []Source{
				{"I.java", "public interface I { public int m(); }"},
				{"B.java", "public class B implements I { public B() {} public int m() { return 1; } }"},
			},
			ok: true,
		},
		{
			name: "interface obligation missing",
			sources: []Source{
				{"I.java", "public interface I { public int m(); }"},
				{"B.java", "public class B implements I { public B() {} }"},
			},
		},
		{
			name: "override changes return type",
			sources: []Source{
				{"A.java", "public class A { public A() {} public int m() { return 0; } }"},
				{"B.java", "public class B extends A { public B() {} public char m() { return 'c'; } }"},
			},
		},
		{
			name: "override narrows visibility",
			sources: []Source{
				{"A.java", "public class A { public A() {} public int m() { return 0; } }"},
				{"B.java", "public class B extends A { public B() {} protected int m() { return 1; } }"},
			},
		},
		{
			name: "conflicting inherited return types",
			sources: []Source{
				{"I.java", "public interface I { public int m(); }"},
				{"J.java", "public interface J { public char m(); }"},
				{"B.java", "public abstract class B implements I, J { public B() {} }"},
			},
		},
		{
			name: "duplicate method signatures",
			sources: []Source{
				{"A.java", "public class A { public A() {} public int m(int x) { return 0; } public char m(int y) { return 'c'; } }"},
			},
		},
		{
			name: "overloads are not duplicates",
			sources: []Source{
				{"A.java", "public class A { public A() {} public int m(int x) { return 0; } public int m(char y) { return 1; } }"},
			},
			ok: true,
		},
		{
			name: "superclass without zero-arg constructor",
			sources: []Source{
				{"A.java", "public class A { public A(int x) {} }"},
				{"B.java", "public class B extends A { public B() {} }"},
			},
		},
		{
			name: "interface sees object methods",
			sources: []Source{
				{"I.java", "public interface I { }"},
				{"B.java", `
				public class B {
					public B() {}
					public int m(I i) { return i.hashCode(); }
				}
				`},
			},
			ok: true,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(testData.sources...)
		assert.Equal(t, !testData.ok, diags.HasErrors(), testData.name)
	}
}
