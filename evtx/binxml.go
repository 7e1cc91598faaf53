package evtx

// BinXml token bytes. The 0x40 bit marks the "more data" variants; the
// decoder treats each pair identically except for OpenStartElement, where
// it announces a trailing attribute-list length.
const (
	tokenEOF               = 0x00
	tokenOpenStartElement  = 0x01
	tokenCloseStartElement = 0x02
	tokenCloseEmptyElement = 0x03
	tokenCloseElement      = 0x04
	tokenValueText         = 0x05
	tokenAttribute         = 0x06
	tokenCDATASection      = 0x07
	tokenCharRef           = 0x08
	tokenEntityRef         = 0x09
	tokenPITarget          = 0x0A
	tokenPIData            = 0x0B
	tokenTemplateInstance  = 0x0C
	tokenNormalSubst       = 0x0D
	tokenOptionalSubst     = 0x0E
	tokenFragmentHeader    = 0x0F
	tokenMoreDataFlag      = 0x40
)

// setState switches the parse state. Leaving stateInAttribute pops the
// attribute name that was pushed when the attribute opened.
func (p *Parser) setState(ctx *parseContext, newState parseState) {
	if newState == ctx.state {
		return
	}
	if ctx.state == stateInAttribute {
		p.names.pop()
	}
	ctx.state = newState
}

// parseBinXML dispatches tokens until the window is exhausted. Rendered
// key/value text is written to the parser's output as a side effect of
// template instances.
func (p *Parser) parseBinXML(ctx *parseContext) error {
	ctx.state = stateNormal

	for ctx.off < len(ctx.data) {
		tag := ctx.data[ctx.off]
		ctx.off++

		var err error
		switch tag {
		case tokenEOF:
			ctx.off = len(ctx.data)

		case tokenOpenStartElement:
			err = p.parseOpenStartElement(ctx, false)
		case tokenOpenStartElement | tokenMoreDataFlag:
			err = p.parseOpenStartElement(ctx, true)

		case tokenCloseStartElement:
			p.setState(ctx, stateNormal)

		case tokenCloseEmptyElement, tokenCloseElement:
			p.setState(ctx, stateNormal)
			p.names.pop()

		case tokenValueText, tokenValueText | tokenMoreDataFlag:
			err = p.parseValueText(ctx)

		case tokenAttribute, tokenAttribute | tokenMoreDataFlag:
			err = p.parseAttribute(ctx)

		case tokenCDATASection, tokenCDATASection | tokenMoreDataFlag,
			tokenCharRef, tokenCharRef | tokenMoreDataFlag,
			tokenEntityRef, tokenEntityRef | tokenMoreDataFlag,
			tokenPITarget, tokenPIData:
			// Consumed without payload. The published grammar gives these
			// bodies; skipping only the tag is a lossy shortcut kept for
			// output compatibility.

		case tokenTemplateInstance:
			err = p.parseTemplateInstance(ctx)

		case tokenNormalSubst, tokenOptionalSubst:
			err = p.parseSubstitution(ctx)

		case tokenFragmentHeader:
			ctx.skip(3)

		default:
			declog.SampledWarn("badtag").
				Uint32("tag", uint32(tag)).
				Int("offset", ctx.off-1).
				Msg("unknown binxml tag")
			return ErrBadTag
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// parseOpenStartElement reads the element header and pushes its name. The
// 2-byte reserved word and 4-byte element length are consumed unused; the
// attribute-list length only exists on the attributed variant.
func (p *Parser) parseOpenStartElement(ctx *parseContext, hasAttributes bool) error {
	if _, err := ctx.readU16(); err != nil {
		return err
	}
	if _, err := ctx.readU32(); err != nil { // element length
		return err
	}
	name, err := readName(ctx)
	if err != nil {
		return err
	}
	if hasAttributes {
		if _, err := ctx.readU32(); err != nil { // attribute list length
			return err
		}
	}
	p.names.push(name)
	return nil
}

// parseAttribute pushes the attribute name and enters stateInAttribute;
// the value that follows closes it again.
func (p *Parser) parseAttribute(ctx *parseContext) error {
	name, err := readName(ctx)
	if err != nil {
		return err
	}
	p.names.push(name)
	p.setState(ctx, stateInAttribute)
	return nil
}

// properKeyName returns the key a value should be registered under. When
// the current element is Data inside EventData and a Name attribute value
// was cached, the cached value replaces "Data" so that
// <Data Name="X">v</Data> renders as X=v.
func (p *Parser) properKeyName(ctx *parseContext) (string, bool) {
	key, ok := p.names.top()
	if !ok {
		return "", false
	}
	if upper, upperOk := p.names.parent(); upperOk &&
		key == "Data" && upper == "EventData" && ctx.cachedValue != "" {
		key = ctx.cachedValue
	}
	return key, true
}

// parseValueText records a literal text value on the active template. The
// Name attribute of a Data element is not registered; its value is cached
// instead, to serve as the key of the next value (see properKeyName).
func (p *Parser) parseValueText(ctx *parseContext) error {
	if _, err := ctx.readU8(); err != nil { // string type discriminator
		return err
	}
	value, err := readPrefixedString(ctx, false)
	if err != nil {
		return err
	}

	key, keyOk := p.properKeyName(ctx)
	upper, upperOk := p.names.parent()

	if keyOk && !(upperOk && key == "Name" && upper == "Data") {
		if ctx.tmpl != nil {
			ctx.tmpl.registerFixedPair(key, value)
		}
	}

	p.setState(ctx, stateNormal)
	ctx.cachedValue = value
	return nil
}

// parseSubstitution registers a substitution slot on the active template.
// Normal and optional substitutions are treated identically. A declared
// type of zero defers to one more type byte.
func (p *Parser) parseSubstitution(ctx *parseContext) error {
	substitutionID, err := ctx.readU16()
	if err != nil {
		return err
	}
	valueType, err := ctx.readU8()
	if err != nil {
		return err
	}
	if valueType == 0x00 {
		if valueType, err = ctx.readU8(); err != nil {
			return err
		}
	}

	if ctx.tmpl != nil {
		key, _ := p.properKeyName(ctx)
		ctx.tmpl.registerArgPair(key, uint16(valueType), substitutionID)
	}
	p.setState(ctx, stateNormal)
	return nil
}

// parseTemplateInstance decodes a template reference. An unknown short ID
// carries an inline definition whose body is parsed in a child window to
// populate the description; a known ID reuses the cached one. Either way
// the instance then supplies the argument table that fills the template's
// substitution slots.
func (p *Parser) parseTemplateInstance(ctx *parseContext) error {
	version, err := ctx.readU8()
	if err != nil {
		return err
	}
	if version != 0x01 {
		return ErrBadTemplate
	}
	shortID, err := ctx.readU32()
	if err != nil {
		return err
	}
	if _, err := ctx.readU32(); err != nil { // residual length, unused
		return err
	}
	numArguments, err := ctx.readU32()
	if err != nil {
		return err
	}

	tmpl, known := p.templates.lookup(shortID)
	if !known {
		// Inline definition: 16-byte GUID, body length, body.
		if _, err := ctx.readBytes(16); err != nil {
			return err
		}
		bodyLen, err := ctx.readU32()
		if err != nil {
			return err
		}

		child := ctx.inheritWindow(int(bodyLen))
		tmpl = p.templates.register(shortID)
		child.tmpl = tmpl

		if err := p.parseBinXML(&child); err != nil {
			return err
		}
		ctx.skip(int(bodyLen))

		// The count read before the definition belongs to the template;
		// the real per-instance count follows the body.
		if numArguments, err = ctx.readU32(); err != nil {
			return err
		}
	}
	ctx.tmpl = tmpl

	p.emitFixedPairs(tmpl)

	// Parallel descriptor array: (length, type) per argument, then the
	// value blobs back to back.
	if !ctx.haveEnough(int(numArguments) * 4) {
		p.emitString("Failed to read the arguments\n")
		return ErrShortRead
	}
	descriptors := make([]uint16, int(numArguments)*2)
	for i := range descriptors {
		descriptors[i], _ = ctx.readU16()
	}

	for argumentIdx := uint16(0); uint32(argumentIdx) < numArguments; argumentIdx++ {
		argLen := int(descriptors[argumentIdx*2])
		argType := descriptors[argumentIdx*2+1]

		pair, ok := tmpl.args[argumentIdx]
		if !ok {
			ctx.skip(argLen)
			continue
		}
		if err := p.renderArgument(ctx, pair, argType, argLen); err != nil {
			return err
		}
	}
	return nil
}
