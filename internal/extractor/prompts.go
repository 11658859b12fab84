package extractor

const intentPrompt = `Analyze the following meeting transcript and extract:
1. Any scheduling-related information
2. Any task assignments to specific people

Today's date is %s.

Respond with a single JSON object with exactly this structure:
{
  "scheduling_intent": boolean,
  "event_title": string or null,
  "start_time": string (ISO 8601) or null,
  "end_time": string (ISO 8601) or null,
  "attendees": list of email addresses or empty list,
  "location": string or null,
  "notes": string or null,
  "task_assignments": [
    {
      "assignee": string (person name),
      "task": string,
      "due_date": string (ISO 8601) or null
    }
  ]
}

Rules:
1. Only set scheduling_intent to true if there is a clear intent to schedule a meeting
2. If only a time is mentioned without a date, use today's date
3. If no duration is given, assume the meeting lasts 30 minutes
4. Extract every mention of a task being assigned to a specific person
5. Copy assignee names exactly as spoken, including nicknames or partial names

Transcript:
%s`
