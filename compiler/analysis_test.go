package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysis_Reachability(t *testing.T) {
	testDatas := []struct {
		name     string
		data     string
		errors   bool
		warnings bool
	}{
		{
			name: "non-void method falls through",
			data: `
			public class A {
				public A() {}
				public int m(boolean c) { if (c) { return 1; } }
			}
			`,
			errors: true,
		},
		{
			name: "if else on both paths",
			data: `
			public class A {
				public A() {}
				public int m(boolean c) { if (c) { return 1; } else { return 2; } }
			}
			`,
		},
		{
			name: "statement after return",
			data: `
			public class A {
				public A() {}
				public int m() { return 1; int x = 2; }
			}
			`,
			warnings: true,
		},
		{
			name: "while true never completes",
			data: `
			public class A {
				public A() {}
				public int m() { while (true) { } }
			}
			`,
		},
		{
			name: "while false body unreachable",
			data: `
			public class A {
				public A() {}
				public int m() { while (false) { int x = 1; } return 0; }
			}
			`,
			warnings: true,
		},
		{
			name: "if false body unreachable",
			data: `
			public class A {
				public A() {}
				public int m() { if (false) { int x = 1; } return 0; }
			}
			`,
			warnings: true,
		},
		{
			name: "constant condition through final static field",
			data: `
			public class A {
				public static final boolean DEBUG = false;
				public A() {}
				public int m() { if (DEBUG) { int x = 1; } return 0; }
			}
			`,
			warnings: true,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(Source{"A.java", testData.data})
		assert.Equal(t, testData.errors, diags.HasErrors(), testData.name)
		if !testData.errors {
			assert.Equal(t, testData.warnings, diags.HasWarnings(), testData.name)
		}
	}
}

func TestAnalysis_DefiniteAssignment(t *testing.T) {
	testDatas := []struct {
		name string
		data string
		ok   bool
	}{
		{
			name: "read before any assignment",
			data: `
			public class A {
				public A() {}
				public static int test() { int x; return x; }
			}
			`,
		},
		{
			name: "assigned on one branch only",
			data: `
			public class A {
				public A() {}
				public int m(boolean c) { int x; if (c) { x = 1; } return x; }
			}
			`,
		},
		{
			name: "assigned on both branches",
			data: `
			public class A {
				public A() {}
				public int m(boolean c) { int x; if (c) { x = 1; } else { x = 2; } return x; }
			}
			`,
			ok: true,
		},
		{
			name: "loop body assignment not definite after loop",
			data: `
			public class A {
				public A() {}
				public int m(boolean c) { int x; while (c) { x = 1; } return x; }
			}
			`,
		},
		{
			name: "parameters start assigned",
			data: `
			public class A {
				public A() {}
				public int m(int x) { return x; }
			}
			`,
			ok: true,
		},
		{
			name: "declaration with initializer",
			data: `
			public class A {
				public A() {}
				public int m() { int x = 1; return x; }
			}
			`,
			ok: true,
		},
		{
			name: "rhs evaluated before assignment",
			data: `
			public class A {
				public A() {}
				public int m() { int x; x = x + 1; return x; }
			}
			`,
		},
	}
	for _, testData := range testDatas {
		_, diags := compileSources(Source{"A.java", testData.data})
		assert.Equal(t, !testData.ok, diags.HasErrors(), testData.name)
		if !testData.ok {
			assert.Equal(t, DefiniteAssignErrorKind, firstErrorKind(diags), testData.name)
		}
	}
}

func TestAnalysis_ConstantFolding(t *testing.T) {
	program, diags := compileSources(Source{"A.java", `
	public class A {
		public static final int K = 6;
		public A() {}
		public static int test() { return 2 + 3 * K; }
		public static boolean b() { return 1 < 2 && true; }
		public static String s() { return "n=" + 42; }
		public static int c() { return (byte) 300; }
	}
	`})
	assert.False(t, diags.HasErrors())

	decl := program.UserUnits[0].Type
	methodConst := func(name string) *ConstValue {
		for _, m := range decl.Methods {
			if m.Name == name {
				ret := m.Body[0].Statement.(*ReturnStatementAst)
				return ret.Value.Const
			}
		}
		return nil
	}

	test := methodConst("test")
	assert.NotNil(t, test)
	assert.Equal(t, int32(20), test.Int)

	b := methodConst("b")
	assert.NotNil(t, b)
	assert.True(t, b.Bool)

	s := methodConst("s")
	assert.NotNil(t, s)
	assert.Equal(t, "n=42", s.Str)

	c := methodConst("c")
	assert.NotNil(t, c)
	assert.Equal(t, int32(44), c.Int)

	k := decl.Fields[0]
	assert.NotNil(t, k.ConstVal)
	assert.Equal(t, int32(6), k.ConstVal.Int)
}

func TestAnalysis_DivisionByZeroNotFolded(t *testing.T) {
	program, diags := compileSources(Source{"A.java", `
	public class A {
		public A() {}
		public static int test() { return 1 / 0; }
	}
	`})
	assert.False(t, diags.HasErrors())
	ret := program.UserUnits[0].Type.Methods[0].Body[0].Statement.(*ReturnStatementAst)
	assert.Nil(t, ret.Value.Const)
}
