package tickets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"ela-checkout/internal/models"

	"github.com/skip2/go-qrcode"
)

// Claim is the payload embedded in a door ticket QR code.
type Claim struct {
	OrderID         string    `json:"order_id"`
	PaymentIntentID string    `json:"payment_intent_id"`
	Tier            string    `json:"tier"`
	FullName        string    `json:"full_name"`
	IssuedAt        time.Time `json:"issued_at"`
}

// QRGenerator renders encrypted door check-in tickets for paid orders.
type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &QRGenerator{secret: hashed[:]}
}

// EncodeClaim builds and encrypts the claim payload a scanner reads back.
func (q *QRGenerator) EncodeClaim(order *models.Order) (string, error) {
	claim := Claim{
		OrderID:         order.ID,
		PaymentIntentID: order.StripePaymentIntentID,
		Tier:            order.Tier,
		FullName:        order.FullName,
		IssuedAt:        time.Now().UTC(),
	}

	data, err := json.Marshal(claim)
	if err != nil {
		return "", err
	}

	return encryptAES(data, q.secret)
}

// Encode renders an order as an encrypted QR PNG.
func (q *QRGenerator) Encode(order *models.Order) ([]byte, error) {
	encrypted, err := q.EncodeClaim(order)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

// DecodeClaim decrypts a scanned QR payload back into a claim, for the
// check-in side.
func (q *QRGenerator) DecodeClaim(payload string) (*Claim, error) {
	data, err := decryptAES(payload, q.secret)
	if err != nil {
		return nil, err
	}

	var claim Claim
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

func decryptAES(payload string, key []byte) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < aes.BlockSize {
		return nil, errors.New("ciphertext too short")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	iv := ciphertext[:aes.BlockSize]
	data := make([]byte, len(ciphertext)-aes.BlockSize)

	stream := cipher.NewCFBDecrypter(block, iv)
	stream.XORKeyStream(data, ciphertext[aes.BlockSize:])

	return data, nil
}
