package compiler

// The built in library. These sources are compiled through the exact same
// pipeline as user code, ahead of it, so java.lang.Object and friends are
// ordinary TypeAst values by the time user units resolve against them. The
// only thing the runtime provides natively is the byte write routine.

type Source struct {
	Name    string
	Content string
}

var stdlibSources = []Source{
	{"java/lang/Object.java", `
package java.lang;

public class Object {
	public Object() {}

	public String toString() {
		return "java.lang.Object";
	}

	public boolean equals(Object other) {
		return this == other;
	}

	public int hashCode() {
		return 0;
	}
}
`},
	{"java/lang/String.java", `
package java.lang;

public final class String {
	public char[] chars;

	public String() {
		chars = new char[0];
	}

	public String(char[] cs) {
		chars = new char[cs.length];
		int i = 0;
		while (i < cs.length) {
			chars[i] = cs[i];
			i = i + 1;
		}
	}

	public int length() {
		return chars.length;
	}

	public char charAt(int index) {
		return chars[index];
	}

	public String concat(String other) {
		char[] merged = new char[chars.length + other.chars.length];
		int i = 0;
		while (i < chars.length) {
			merged[i] = chars[i];
			i = i + 1;
		}
		int j = 0;
		while (j < other.chars.length) {
			merged[i + j] = other.chars[j];
			j = j + 1;
		}
		return new String(merged);
	}

	public String toString() {
		return this;
	}

	public boolean equals(Object other) {
		if (other == null) {
			return false;
		}
		if (!(other instanceof String)) {
			return false;
		}
		String s = (String) other;
		if (s.length() != chars.length) {
			return false;
		}
		int i = 0;
		while (i < chars.length) {
			if (chars[i] != s.chars[i]) {
				return false;
			}
			i = i + 1;
		}
		return true;
	}

	public static String valueOf(char c) {
		char[] cs = new char[1];
		cs[0] = c;
		return new String(cs);
	}

	public static String valueOf(boolean b) {
		if (b) {
			return "true";
		}
		return "false";
	}

	public static String valueOf(int value) {
		if (value == 0) {
			return "0";
		}
		boolean negative = value < 0;
		int magnitude = value;
		if (negative) {
			magnitude = -magnitude;
		}
		char[] buffer = new char[12];
		int count = 0;
		while (magnitude > 0) {
			buffer[count] = (char) ('0' + magnitude % 10);
			magnitude = magnitude / 10;
			count = count + 1;
		}
		int width = count;
		if (negative) {
			width = width + 1;
		}
		char[] digits = new char[width];
		int at = 0;
		if (negative) {
			digits[0] = '-';
			at = 1;
		}
		while (count > 0) {
			digits[at] = buffer[count - 1];
			at = at + 1;
			count = count - 1;
		}
		return new String(digits);
	}

	public static String valueOf(Object o) {
		if (o == null) {
			return "null";
		}
		return o.toString();
	}
}
`},
	{"java/lang/Cloneable.java", `
package java.lang;

public interface Cloneable {
}
`},
	{"java/io/Serializable.java", `
package java.io;

public interface Serializable {
}
`},
	{"java/io/OutputStream.java", `
package java.io;

public class OutputStream {
	public OutputStream() {}

	public static native int nativeWrite(int b);

	public int write(int b) {
		return OutputStream.nativeWrite(b);
	}

	public int print(String s) {
		int i = 0;
		while (i < s.length()) {
			OutputStream.nativeWrite(s.charAt(i));
			i = i + 1;
		}
		return 0;
	}

	public int println(String s) {
		this.print(s);
		return OutputStream.nativeWrite(10);
	}
}
`},
	{"java/lang/System.java", `
package java.lang;

import java.io.OutputStream;

public final class System {
	public System() {}

	public static OutputStream out = new OutputStream();
}
`},
}
