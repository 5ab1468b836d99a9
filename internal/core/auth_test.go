package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateAuthAllPass(t *testing.T) {
	headers := map[string]string{
		"authentication-results": "mx.example.org; spf=pass smtp.mailfrom=corp.example; dkim=pass header.d=corp.example; dmarc=pass header.from=corp.example",
	}

	result := EvaluateAuth(headers)

	assert.Equal(t, AuthPass, result.SPF)
	assert.Equal(t, AuthPass, result.DKIM)
	assert.Equal(t, AuthPass, result.DMARC)
}

func TestEvaluateAuthMixedVerdicts(t *testing.T) {
	headers := map[string]string{
		"authentication-results": "mx.example.org; spf=fail smtp.mailfrom=spoof.example; dkim=pass header.d=other.example",
	}

	result := EvaluateAuth(headers)

	assert.Equal(t, AuthFail, result.SPF)
	assert.Equal(t, AuthPass, result.DKIM)
	assert.Equal(t, AuthNeutral, result.DMARC, "absent mechanism is neutral, not pass")
}

func TestEvaluateAuthCaseInsensitive(t *testing.T) {
	headers := map[string]string{
		"authentication-results": "mx.example.org; SPF=Pass; DKIM=FAIL; DMARC=pass",
	}

	result := EvaluateAuth(headers)

	assert.Equal(t, AuthPass, result.SPF)
	assert.Equal(t, AuthFail, result.DKIM)
	assert.Equal(t, AuthPass, result.DMARC)
}

func TestEvaluateAuthMissingHeader(t *testing.T) {
	result := EvaluateAuth(map[string]string{"subject": "hello"})

	assert.Equal(t, AuthNeutral, result.SPF)
	assert.Equal(t, AuthNeutral, result.DKIM)
	assert.Equal(t, AuthNeutral, result.DMARC)
}

func TestEvaluateAuthMalformedHeader(t *testing.T) {
	headers := map[string]string{
		"authentication-results": "complete garbage ;;; not a results header",
	}

	result := EvaluateAuth(headers)

	assert.Equal(t, AuthNeutral, result.SPF)
	assert.Equal(t, AuthNeutral, result.DKIM)
	assert.Equal(t, AuthNeutral, result.DMARC)
}

func TestEvaluateAuthNilHeaders(t *testing.T) {
	result := EvaluateAuth(nil)

	assert.Equal(t, AuthNeutral, result.SPF)
	assert.Equal(t, AuthNeutral, result.DKIM)
	assert.Equal(t, AuthNeutral, result.DMARC)
}
