package classifier

import "encoding/json"

// Temperature keeps extraction close to deterministic.
const Temperature float32 = 0.1

// Instruction is sent with every image.
const Instruction = `Look at the attached image and decide which kind of document it is. When it is a medical document, also read the fields listed below.

Document types:
- "prescription": an order written by a doctor or other clinician for medication, treatment or a device. Usually shows the patient, the doctor's name or signature, a date, drugs with dosage, and the clinic or hospital.
- "report": a diagnostic or laboratory result such as blood or urine tests, imaging reports (X-ray, MRI, CT) or pathology. Usually shows the test name, measured values, reference ranges and a report date.
- "other": anything else, medical or not (bills, insurance papers, discharge summaries, appointment slips, photos).

For a prescription fill:
- department: the medical department, inferred when not printed, or null
- doctor_name: the prescribing doctor's full name, or null
- visited_date: the visit or issue date as YYYY-MM-DD, or null

For a report fill:
- test_name: the main test or report name, e.g. "Complete Blood Count", or null
- deliveryDate: the date the report was issued as YYYY-MM-DD, or null
- normal_or_not: "Normal" when the key results are inside their reference ranges, "Abnormal" when they are not, "Not Applicable" when no such judgement can be made

For "other" every field is null.

Answer with one JSON object and nothing else:
{
  "documentType": "prescription" | "report" | "other",
  "extractedData": {
    "department": string | null,
    "doctor_name": string | null,
    "visited_date": string | null,
    "test_name": string | null,
    "deliveryDate": string | null,
    "normal_or_not": "Normal" | "Abnormal" | "Not Applicable" | null
  },
  "reason": string | null
}`

// ResponseSchema is the structured-output schema matching Instruction.
var ResponseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "documentType": {"type": "STRING", "enum": ["prescription", "report", "other"]},
    "extractedData": {
      "type": "OBJECT",
      "properties": {
        "department": {"type": "STRING", "nullable": true},
        "doctor_name": {"type": "STRING", "nullable": true},
        "visited_date": {"type": "STRING", "nullable": true},
        "test_name": {"type": "STRING", "nullable": true},
        "deliveryDate": {"type": "STRING", "nullable": true},
        "normal_or_not": {"type": "STRING", "enum": ["Normal", "Abnormal", "Not Applicable"], "nullable": true}
      }
    },
    "reason": {"type": "STRING", "nullable": true}
  },
  "required": ["documentType", "extractedData"]
}`)
