package util

func IsNumber(b byte) bool {
	return b >= '0' && b <= '9'
}

func IsOctal(b byte) bool {
	return b >= '0' && b <= '7'
}

func IsUnderScore(b byte) bool {
	return b == '_'
}

func IsDollar(b byte) bool {
	return b == '$'
}

func IsLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func IsIdentifierStart(b byte) bool {
	return IsLetter(b) || IsUnderScore(b) || IsDollar(b)
}

func IsIdentifierPart(b byte) bool {
	return IsIdentifierStart(b) || IsNumber(b)
}

func IsSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n' || b == '\f'
}
