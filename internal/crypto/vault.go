package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"fleetd/internal/model"

	"golang.org/x/crypto/scrypt"
)

// scryptN is the scrypt work factor for the local vault.
// Security is prioritized over performance.
//
// N=2^18 (~256MB RAM, 0.5-2s) - optimal balance:
//   - Maximum security while remaining compatible with mobile devices
//   - Brute-force attacks remain extremely expensive
//
// Lowered in tests.
var scryptN = 1 << 18

const (
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 32
	nonceLen     = 12

	networkSolana = "solana"
)

// FileExistsError is an error when vault file already exists and is not empty
type FileExistsError struct {
	Message string
}

func (e *FileExistsError) Error() string {
	return e.Message
}

// IsFileExistsError checks if error is FileExistsError
func IsFileExistsError(err error) bool {
	var fe *FileExistsError
	return errors.As(err, &fe)
}

// SaveVault encrypts the account set and writes it to a .fvt file.
// password must be []byte for security (caller should zero it after use)
func SaveVault(filePath, parentAddress, qrCode string, data *model.VaultData, password []byte) error {
	// Check file extension (should be .fvt)
	if !strings.HasSuffix(filePath, ".fvt") {
		return errors.New("file must have .fvt extension")
	}

	// Refuse to clobber an existing non-empty vault
	if fileInfo, err := os.Stat(filePath); err == nil && fileInfo.Size() > 0 {
		return &FileExistsError{Message: "vault file is not empty"}
	}

	// Generate salt and nonce
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	nonce := make([]byte, nonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return err
	}

	// Serialize vault payload
	plaintext, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal vault data: %w", err)
	}
	defer clear(plaintext) // wipe plaintext bytes from memory

	// Encrypt
	ciphertext := aesGCM.Seal(nil, nonce, plaintext, nil)

	// Create file structure
	vaultFile := model.VaultFile{
		Network:       networkSolana,
		ParentAddress: parentAddress,
		QR:            qrCode,
		Salt:          base64.StdEncoding.EncodeToString(salt),
		Nonce:         base64.StdEncoding.EncodeToString(nonce),
		CipherText:    base64.StdEncoding.EncodeToString(ciphertext),
	}

	// Serialize to JSON
	fileData, err := json.MarshalIndent(vaultFile, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vault file: %w", err)
	}

	// Add UTF-8 BOM for proper display in Windows
	utf8BOM := []byte{0xEF, 0xBB, 0xBF}
	fileDataWithBOM := append(utf8BOM, fileData...)

	// Write to file
	if err := os.WriteFile(filePath, fileDataWithBOM, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadVault reads and decrypts a .fvt file.
// password must be []byte for security (caller should zero it after use)
func LoadVault(filePath string, password []byte) (*model.VaultFile, *model.VaultData, error) {
	fileData, err := readVaultBytes(filePath)
	if err != nil {
		return nil, nil, err
	}
	return DecodeVault(fileData, password)
}

// DecodeVault decrypts raw vault file bytes.
func DecodeVault(fileData []byte, password []byte) (*model.VaultFile, *model.VaultData, error) {
	fileData = stripBOM(fileData)

	// Deserialize file structure
	var vaultFile model.VaultFile
	if err := json.Unmarshal(fileData, &vaultFile); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal vault file: %w", err)
	}

	// Decode salt and nonce
	salt, err := base64.StdEncoding.DecodeString(vaultFile.Salt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode salt: %w", err)
	}

	nonce, err := base64.StdEncoding.DecodeString(vaultFile.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode nonce: %w", err)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(vaultFile.CipherText)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	// Derive key from password
	key, err := scrypt.Key(password, salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive key: %w", err)
	}

	aesGCM, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	// Decrypt
	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, nil, errors.New("invalid password")
	}
	defer clear(plaintext) // wipe decrypted bytes from memory

	// Deserialize vault payload
	var data model.VaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal vault data: %w", err)
	}

	return &vaultFile, &data, nil
}

// ReadParentAddress reads only the parent address from a .fvt file (without decryption)
func ReadParentAddress(filePath string) (string, error) {
	fileData, err := readVaultBytes(filePath)
	if err != nil {
		return "", err
	}
	fileData = stripBOM(fileData)

	var vaultFile model.VaultFile
	if err := json.Unmarshal(fileData, &vaultFile); err != nil {
		return "", fmt.Errorf("failed to unmarshal vault file: %w", err)
	}

	return vaultFile.ParentAddress, nil
}

func readVaultBytes(filePath string) ([]byte, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("vault file does not exist")
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	if fileInfo.Size() == 0 {
		return nil, errors.New("vault file is empty")
	}

	fileData, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return fileData, nil
}

func stripBOM(fileData []byte) []byte {
	if len(fileData) >= 3 && fileData[0] == 0xEF && fileData[1] == 0xBB && fileData[2] == 0xBF {
		return fileData[3:]
	}
	return fileData
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}
