package catalog

// Default returns the general-industry catalog of twelve domains.
// A fresh copy is built on every call so callers may adjust it.
func Default() *Catalog {
	return &Catalog{
		Industry: IndustryGeneral,
		Domains: []Domain{
			{ID: "phishing_screening", Name: "Phishing Screening", Controls: []Control{
				{ID: "email_filtering", Name: "Secure email gateway filtering", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.PS-05", Key: true,
					Remediation: "Deploy a secure email gateway with attachment sandboxing and URL rewriting"},
				{ID: "phishing_simulation", Name: "Phishing simulation campaigns", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.AT-01",
					Remediation: "Run quarterly phishing simulations and track click rates per department"},
				{ID: "email_authentication", Name: "SPF, DKIM and DMARC enforcement", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.PS-01",
					Remediation: "Publish SPF and DKIM records and move DMARC to a reject policy"},
			}},
			{ID: "security_awareness", Name: "Security Awareness", Controls: []Control{
				{ID: "awareness_training", Name: "Security awareness training program", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.AT-01", Key: true,
					Remediation: "Require annual awareness training with completion tracking for all staff"},
				{ID: "role_training", Name: "Role-based security training", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.AT-02",
					Remediation: "Provide targeted training for administrators, developers and finance staff"},
				{ID: "policy_acknowledgement", Name: "Security policy acknowledgement", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.PO-01",
					Remediation: "Collect signed acknowledgement of the acceptable use and security policies"},
			}},
			{ID: "external_footprints", Name: "External Footprints", Controls: []Control{
				{ID: "attack_surface_discovery", Name: "External attack surface discovery", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.AM-01", Key: true,
					Remediation: "Inventory internet-facing hosts, domains and exposed services continuously"},
				{ID: "external_vuln_scanning", Name: "External vulnerability scanning", ExpertLevel: TierManaged, Category: Identify, Reference: "ID.RA-01",
					Remediation: "Schedule authenticated external scans and track remediation SLAs"},
				{ID: "certificate_monitoring", Name: "Domain and certificate monitoring", ExpertLevel: TierDefined, Category: Detect, Reference: "DE.CM-01",
					Remediation: "Monitor certificate transparency logs and domain registrations for look-alikes"},
			}},
			{ID: "dark_web", Name: "Dark Web Exposure", Controls: []Control{
				{ID: "credential_monitoring", Name: "Leaked credential monitoring", ExpertLevel: TierDefined, Category: Detect, Reference: "DE.CM-01", Key: true,
					Remediation: "Subscribe to breach and paste-site monitoring for corporate domains"},
				{ID: "threat_intelligence", Name: "Threat intelligence feeds", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.RA-02",
					Remediation: "Ingest curated threat intelligence relevant to the organization's sector"},
				{ID: "exposure_response", Name: "Exposure response procedure", ExpertLevel: TierRepeatable, Category: Respond, Reference: "RS.MA-01",
					Remediation: "Document how leaked credentials and data are rotated, revoked and reported"},
			}},
			{ID: "endpoint_security", Name: "Endpoint Security", Controls: []Control{
				{ID: "edr", Name: "Endpoint detection and response", ExpertLevel: TierManaged, Category: Detect, Reference: "DE.CM-09", Key: true,
					Remediation: "Deploy EDR on every workstation and server with central alert triage"},
				{ID: "patch_management", Name: "Patch management", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.PS-02", Key: true,
					Remediation: "Patch critical vulnerabilities within 14 days and report compliance monthly"},
				{ID: "disk_encryption", Name: "Full-disk encryption", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.DS-01",
					Remediation: "Enforce full-disk encryption on laptops and removable media"},
				{ID: "secure_configuration", Name: "Secure configuration baselines", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.PS-01",
					Remediation: "Apply CIS benchmarks to endpoint images and detect configuration drift"},
			}},
			{ID: "cloud_security", Name: "Cloud Security", Controls: []Control{
				{ID: "cloud_posture", Name: "Cloud security posture management", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.RA-01", Key: true,
					Remediation: "Continuously evaluate cloud accounts against a posture baseline"},
				{ID: "cloud_iam", Name: "Cloud identity and least privilege", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.AA-05", Key: true,
					Remediation: "Remove standing administrator access and review cloud IAM roles quarterly"},
				{ID: "cloud_logging", Name: "Cloud audit logging", ExpertLevel: TierDefined, Category: Detect, Reference: "DE.CM-03",
					Remediation: "Centralize cloud audit logs with tamper-resistant retention"},
			}},
			{ID: "data_security", Name: "Data Security", Controls: []Control{
				{ID: "data_classification", Name: "Data classification", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.AM-07",
					Remediation: "Define data classification levels and label regulated data stores"},
				{ID: "encryption_at_rest", Name: "Encryption at rest", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.DS-01", Key: true,
					Remediation: "Encrypt databases and file shares holding sensitive data with managed keys"},
				{ID: "backups", Name: "Tested data backups", ExpertLevel: TierManaged, Category: Recover, Reference: "RC.RP-03", Key: true,
					Remediation: "Keep offline or immutable backups and test restores at least quarterly"},
				{ID: "data_loss_prevention", Name: "Data loss prevention", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.DS-02",
					Remediation: "Apply DLP rules to email, endpoints and cloud storage for regulated data"},
			}},
			{ID: "device_inventory", Name: "Device Inventory Tracking", Controls: []Control{
				{ID: "hardware_inventory", Name: "Hardware asset inventory", ExpertLevel: TierManaged, Category: Identify, Reference: "ID.AM-01", Key: true,
					Remediation: "Maintain an authoritative hardware inventory reconciled against network discovery"},
				{ID: "software_inventory", Name: "Software asset inventory", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.AM-02",
					Remediation: "Track installed software and flag unauthorized or end-of-life packages"},
				{ID: "mobile_management", Name: "Mobile and BYOD management", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.PS-01",
					Remediation: "Enroll mobile and personal devices in MDM before granting corporate access"},
			}},
			{ID: "identity_behavior", Name: "Identity Behavior & Hygiene", Controls: []Control{
				{ID: "mfa", Name: "Multi-factor authentication", ExpertLevel: TierManaged, Category: Protect, Reference: "PR.AA-03", Key: true,
					Remediation: "Enforce phishing-resistant MFA for remote access, email and administrators"},
				{ID: "access_reviews", Name: "Periodic access reviews", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.RR-04",
					Remediation: "Review privileged and application access quarterly with documented sign-off"},
				{ID: "credential_hygiene", Name: "Password and credential hygiene", ExpertLevel: TierDefined, Category: Protect, Reference: "PR.AA-01",
					Remediation: "Adopt a password manager and block known-breached passwords"},
				{ID: "behavior_analytics", Name: "User behavior analytics", ExpertLevel: TierRepeatable, Category: Detect, Reference: "DE.AE-02",
					Remediation: "Alert on anomalous sign-ins such as impossible travel and mass downloads"},
			}},
			{ID: "compliance", Name: "Compliances", Controls: []Control{
				{ID: "compliance_program", Name: "Compliance management program", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.OC-03", Key: true,
					Remediation: "Assign a compliance owner and maintain a calendar of control attestations"},
				{ID: "internal_audit", Name: "Internal control audits", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.OV-01",
					Remediation: "Audit key controls annually and track findings to closure"},
				{ID: "evidence_tracking", Name: "Compliance evidence tracking", ExpertLevel: TierRepeatable, Category: Govern, Reference: "GV.OV-02",
					Remediation: "Store control evidence centrally with owners and review dates"},
			}},
			{ID: "regulatory", Name: "Regulatory Requirements", Controls: []Control{
				{ID: "regulatory_register", Name: "Regulatory obligations register", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.OC-03", Key: true,
					Remediation: "List applicable regulations and map each to owning controls"},
				{ID: "breach_notification", Name: "Breach notification procedure", ExpertLevel: TierDefined, Category: Respond, Reference: "RS.CO-02",
					Remediation: "Document regulator and customer notification timelines and contacts"},
				{ID: "privacy_assessments", Name: "Privacy impact assessments", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.PO-01",
					Remediation: "Perform privacy impact assessments before launching systems that handle personal data"},
			}},
			{ID: "frameworks", Name: "Frameworks", Controls: []Control{
				{ID: "framework_adoption", Name: "Security framework adoption", ExpertLevel: TierDefined, Category: Govern, Reference: "GV.PO-02", Key: true,
					Remediation: "Adopt a control framework such as NIST CSF, ISO 27001 or CIS Controls and measure against it"},
				{ID: "incident_response_plan", Name: "Incident response plan", ExpertLevel: TierManaged, Category: Respond, Reference: "RS.MA-01",
					Remediation: "Maintain an incident response plan and exercise it with a tabletop twice a year"},
				{ID: "recovery_plan", Name: "Business continuity and recovery plan", ExpertLevel: TierDefined, Category: Recover, Reference: "RC.RP-01",
					Remediation: "Define recovery time objectives and test the continuity plan annually"},
				{ID: "risk_assessment", Name: "Periodic risk assessment", ExpertLevel: TierDefined, Category: Identify, Reference: "ID.RA-05",
					Remediation: "Assess and rank risks annually and after major changes"},
			}},
		},
	}
}
