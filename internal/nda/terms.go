package nda

import (
	"crypto/sha256"
	"encoding/hex"
)

// TermsVersion identifies the current agreement text.
const TermsVersion = "2025-11"

// TermsText is the fixed legal agreement rendered into every signed NDA.
const TermsText = `MUTUAL NON-DISCLOSURE AGREEMENT

This Mutual Non-Disclosure Agreement (the "Agreement") is entered into
between Veridian IP Services ("Veridian") and the undersigned party (the
"Disclosing Party") for the purpose of preventing the unauthorized
disclosure of Confidential Information.

1. Definition of Confidential Information. "Confidential Information"
includes all invention disclosures, technical data, drawings, prototypes,
business plans, and any other proprietary information shared in connection
with a freedom-to-operate or patentability search request.

2. Obligations. Veridian agrees to hold all Confidential Information in
strict confidence, to use it solely for the purpose of performing the
requested search services, and not to disclose it to any third party without
the Disclosing Party's prior written consent.

3. Exclusions. Confidential Information does not include information that is
or becomes publicly known through no fault of Veridian, was rightfully known
prior to disclosure, or is independently developed without use of the
Confidential Information.

4. Term. The confidentiality obligations of this Agreement survive for five
(5) years from the date of signature.

5. Return of Materials. Upon written request, Veridian will return or
destroy all materials embodying Confidential Information.

By signing below, the Disclosing Party acknowledges having read and agreed
to the terms of this Agreement.`

// TermsHash returns the hex SHA-256 of the current terms text, stored on
// each agreement as the terms snapshot.
func TermsHash() string {
	sum := sha256.Sum256([]byte(TermsText))
	return hex.EncodeToString(sum[:])
}
