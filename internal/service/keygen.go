package service

import (
	"crypto/rand"
	"fmt"
	"regexp"
	"strings"
)

// Formato da chave: FN-XXXX-XXXX-XXXX-XXXX
// O alfabeto não tem 0/O nem 1/I para evitar erro de digitação.
const keyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var keyFormatRegex = regexp.MustCompile(`^FN(-[A-HJ-NP-Z2-9]{4}){4}$`)

// GenerateLicenseKey cria uma chave aleatória. len(keyAlphabet) divide 256, então não há viés.
func GenerateLicenseKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("gerar chave de licença: %w", err)
	}

	var b strings.Builder
	b.WriteString("FN")
	for i, c := range raw {
		if i%4 == 0 {
			b.WriteByte('-')
		}
		b.WriteByte(keyAlphabet[int(c)%len(keyAlphabet)])
	}
	return b.String(), nil
}

// NormalizeLicenseKey remove espaços e converte para maiúsculas, como o usuário costuma colar.
func NormalizeLicenseKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// ValidLicenseKeyFormat verifica o formato sem consultar o armazenamento.
func ValidLicenseKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}
