package rdf

// Well-known vocabulary IRIs used by the projection and service layers.
const (
	XSDString     IRI = "http://www.w3.org/2001/XMLSchema#string"
	RDFLangString IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#langString"
	RDFType       IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

	DCType     IRI = "http://purl.org/dc/terms/type"
	DCModified IRI = "http://purl.org/dc/terms/modified"
	DCIsPartOf IRI = "http://purl.org/dc/terms/isPartOf"
	DCHasPart  IRI = "http://purl.org/dc/terms/hasPart"
	DCFormat   IRI = "http://purl.org/dc/terms/format"
	DCExtent   IRI = "http://purl.org/dc/terms/extent"

	LDPContains               IRI = "http://www.w3.org/ns/ldp#contains"
	LDPMember                 IRI = "http://www.w3.org/ns/ldp#member"
	LDPMembershipResource     IRI = "http://www.w3.org/ns/ldp#membershipResource"
	LDPHasMemberRelation      IRI = "http://www.w3.org/ns/ldp#hasMemberRelation"
	LDPIsMemberOfRelation     IRI = "http://www.w3.org/ns/ldp#isMemberOfRelation"
	LDPInsertedContentRelation IRI = "http://www.w3.org/ns/ldp#insertedContentRelation"
	LDPMemberSubject          IRI = "http://www.w3.org/ns/ldp#MemberSubject"

	LDPRDFSource        IRI = "http://www.w3.org/ns/ldp#RDFSource"
	LDPNonRDFSource     IRI = "http://www.w3.org/ns/ldp#NonRDFSource"
	LDPContainer        IRI = "http://www.w3.org/ns/ldp#Container"
	LDPBasicContainer   IRI = "http://www.w3.org/ns/ldp#BasicContainer"
	LDPDirectContainer  IRI = "http://www.w3.org/ns/ldp#DirectContainer"
	LDPIndirectContainer IRI = "http://www.w3.org/ns/ldp#IndirectContainer"

	TrellisDeletedResource IRI = "http://www.trellisldp.org/ns/trellis#DeletedResource"
	TrellisPreferServerManaged IRI = "http://www.trellisldp.org/ns/trellis#PreferServerManaged"

	ProvWasGeneratedBy IRI = "http://www.w3.org/ns/prov#wasGeneratedBy"
	ProvAtTime         IRI = "http://www.w3.org/ns/prov#atTime"
)
