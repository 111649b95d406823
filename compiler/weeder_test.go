package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeeder_Modifiers(t *testing.T) {
	testDatas := []struct {
		data      string
		expectErr bool
	}{
		{
			data:      "public class A { public A() {} public final int m() { return 0; } }",
			expectErr: false,
		},
		{
			data:      "public abstract class A { public A() {} public abstract int m(); }",
			expectErr: false,
		},
		{
			data:      "public abstract final class A { public A() {} }",
			expectErr: true,
		},
		{
			data:      "class A { public A() {} }",
			expectErr: true, // top level type must be public
		},
		{
			data:      "public class A { public A() {} public protected int m() { return 0; } }",
			expectErr: true,
		},
		{
			data:      "public class A { public A() {} public static final int m() { return 0; } }",
			expectErr: true,
		},
		{
			data:      "public class A { public A() {} public abstract static int m(); }",
			expectErr: true,
		},
		{
			data:      "public class A { public A() {} public native int m(int b); }",
			expectErr: true, // native requires static
		},
		{
			data:      "public class A { public A() {} public static native int m(int b); }",
			expectErr: false,
		},
		{
			data:      "public class A { public A() {} public static native char m(int b); }",
			expectErr: true, // native is pinned to int(int)
		},
		{
			data:      "public class A { public A() {} public abstract int m() { return 0; } }",
			expectErr: true, // abstract with a body
		},
		{
			data:      "public class A { public A() {} public int m(); }",
			expectErr: true, // missing body
		},
		{
			data:      "public class A { public A() {} int m() { return 0; } }",
			expectErr: true, // package private method
		},
		{
			data:      "public class A { public A() {} public final int x; }",
			expectErr: true, // final field without initializer
		},
		{
			data:      "public class A { public A() {} public final int x = 1; }",
			expectErr: false,
		},
		{
			data:      "public class A { public A() {} public int m(int a, int a) { return a; } }",
			expectErr: true, // duplicate parameter
		},
		{
			data:      "public class A { public abstract int m(); public A() {} }",
			expectErr: true, // abstract method in concrete class
		},
		{
			data:      "public interface A { int m(); }",
			expectErr: true, // interface method must be public
		},
		{
			data:      "public interface A { public int m(); }",
			expectErr: false,
		},
	}
	for _, testData := range testDatas {
		parser := &Parser{}
		unit, err := parser.Parse("A.java", strings.NewReader(testData.data))
		assert.Nil(t, err, testData.data)
		diags := &Diagnostics{}
		weedUnit(unit, diags)
		assert.Equal(t, testData.expectErr, diags.HasErrors(), testData.data)
	}
}

func TestWeeder_FileNameAgreement(t *testing.T) {
	parser := &Parser{}
	unit, err := parser.Parse("B.java", strings.NewReader("public class A { public A() {} }"))
	assert.Nil(t, err)
	diags := &Diagnostics{}
	weedUnit(unit, diags)
	assert.True(t, diags.HasErrors())
}

func TestWeeder_ImplicitDefaultConstructor(t *testing.T) {
	parser := &Parser{}
	unit, err := parser.Parse("A.java", strings.NewReader("public class A { }"))
	assert.Nil(t, err)
	diags := &Diagnostics{}
	weedUnit(unit, diags)
	assert.False(t, diags.HasErrors())
	assert.Equal(t, 1, len(unit.Type.Constructors))
	assert.True(t, unit.Type.Constructors[0].Modifiers.Has(PublicModifier))
}

func TestWeeder_IntegerBounds(t *testing.T) {
	testDatas := []struct {
		data      string
		expectErr bool
	}{
		{"public class A { public A() {} public int x = 2147483647; }", false},
		{"public class A { public A() {} public int x = 2147483648; }", true},
		{"public class A { public A() {} public int x = -2147483648; }", false},
		{"public class A { public A() {} public int x = -2147483649; }", true},
		{"public class A { public A() {} public int x = 1 + 2147483648; }", true},
	}
	for _, testData := range testDatas {
		parser := &Parser{}
		unit, err := parser.Parse("A.java", strings.NewReader(testData.data))
		assert.Nil(t, err, testData.data)
		diags := &Diagnostics{}
		weedUnit(unit, diags)
		assert.Equal(t, testData.expectErr, diags.HasErrors(), testData.data)
	}
}

func TestWeeder_StatementShapes(t *testing.T) {
	testDatas := []struct {
		data      string
		expectErr bool
	}{
		{"public class A { public A() {} public void m(int x) { x + 1; } }", true},
		{"public class A { public A() {} public void m(int x) { x = x + 1; } }", false},
		{"public class A { public A() {} public void m() { return 1; } }", true},
		{"public class A { public A() {} public int m() { return; } }", true},
	}
	for _, testData := range testDatas {
		parser := &Parser{}
		unit, err := parser.Parse("A.java", strings.NewReader(testData.data))
		assert.Nil(t, err, testData.data)
		diags := &Diagnostics{}
		weedUnit(unit, diags)
		assert.Equal(t, testData.expectErr, diags.HasErrors(), testData.data)
	}
}
