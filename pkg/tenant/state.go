package tenant

import "bytes"

// State identifies how far a tenant's issuance sequence has
// progressed. It is never persisted, always recomputed from the
// artifacts present on the file system so an interrupted run resumes
// at the first incomplete step.
type State int

const (
	StateAbsent State = iota
	StateKeyPairGenerated
	StateExported
	StateCSRCreated
	StateSigned
	StateRootTrusted
	StateLeafImported
	StateDone
)

func (s State) String() string {
	switch s {
	case StateKeyPairGenerated:
		return "key-pair-generated"
	case StateExported:
		return "exported"
	case StateCSRCreated:
		return "csr-created"
	case StateSigned:
		return "signed"
	case StateRootTrusted:
		return "root-trusted"
	case StateLeafImported:
		return "leaf-imported"
	case StateDone:
		return "done"
	default:
		return "absent"
	}
}

type ArtifactStatus int

const (
	StatusAbsent ArtifactStatus = iota
	StatusGenerated
)

func (s ArtifactStatus) String() string {
	if s == StatusGenerated {
		return "generated"
	}
	return "absent"
}

// Artifact reports the presence of a single file produced by the
// issuance sequence.
type Artifact struct {
	Name   string
	Path   string
	Status ArtifactStatus
}

// State derives the tenant's position in the issuance sequence. File
// presence decides the early states, the trust and leaf import states
// require inspecting the keystore contents.
func (c *CredentialStore) State() State {
	if c.backend.Exists(c.trustStorePath) {
		return StateDone
	}
	if !c.backend.Exists(c.keystorePath) {
		return StateAbsent
	}
	if !c.certStore.Exists(c.exportPath) || !c.certStore.Exists(c.keyPath) {
		return StateKeyPairGenerated
	}
	if !c.certStore.Exists(c.csrPath) {
		return StateExported
	}
	if !c.certStore.Exists(c.certPath) {
		return StateCSRCreated
	}
	container, err := c.backend.Load(c.keystorePath, c.password)
	if err != nil {
		return StateSigned
	}
	root, err := c.authority.Certificate()
	if err != nil || !container.HasTrustedCert(root) {
		return StateSigned
	}
	leaf, err := container.Leaf()
	if err != nil {
		return StateRootTrusted
	}
	certificate, err := c.certStore.Certificate(c.certPath)
	if err != nil || !bytes.Equal(leaf.Raw, certificate.Raw) {
		return StateRootTrusted
	}
	return StateLeafImported
}

// Artifacts reports the presence of every file the issuance sequence
// produces for this tenant, in generation order.
func (c *CredentialStore) Artifacts() []Artifact {
	status := func(exists bool) ArtifactStatus {
		if exists {
			return StatusGenerated
		}
		return StatusAbsent
	}
	return []Artifact{
		{"keystore", c.keystorePath, status(c.backend.Exists(c.keystorePath))},
		{"interchange-export", c.exportPath, status(c.certStore.Exists(c.exportPath))},
		{"private-key", c.keyPath, status(c.certStore.Exists(c.keyPath))},
		{"signing-request", c.csrPath, status(c.certStore.Exists(c.csrPath))},
		{"certificate", c.certPath, status(c.certStore.Exists(c.certPath))},
		{"connection-config", c.configPath, status(c.certStore.Exists(c.configPath))},
		{"truststore", c.trustStorePath, status(c.backend.Exists(c.trustStorePath))},
	}
}
